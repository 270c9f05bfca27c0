package models

// Snapshot — весь набор данных сервиса в одном документе.
// Загружается целиком при старте и перезаписывается целиком при каждой мутации.
type Snapshot struct {
	Users         []User         `json:"users"`
	Subscriptions []Subscription `json:"subscriptions"`
	Plans         []Plan         `json:"subscription_plans"`
	Settings      *Settings      `json:"system_settings,omitempty"`
}

// Clone возвращает глубокую копию снимка.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		Users:         append([]User(nil), s.Users...),
		Subscriptions: append([]Subscription(nil), s.Subscriptions...),
		Plans:         make([]Plan, len(s.Plans)),
	}
	for i := range s.Plans {
		c.Plans[i] = s.Plans[i].Clone()
	}
	if s.Settings != nil {
		settings := *s.Settings
		c.Settings = &settings
	}
	return c
}

// Normalize заменяет nil-коллекции пустыми, чтобы документ сериализовался с [] вместо null.
func (s *Snapshot) Normalize() {
	if s.Users == nil {
		s.Users = []User{}
	}
	if s.Subscriptions == nil {
		s.Subscriptions = []Subscription{}
	}
	if s.Plans == nil {
		s.Plans = []Plan{}
	}
}

// UserByID возвращает указатель на пользователя внутри снимка.
func (s *Snapshot) UserByID(id string) (*User, bool) {
	for i := range s.Users {
		if s.Users[i].ID == id {
			return &s.Users[i], true
		}
	}
	return nil, false
}

// PlanByID возвращает указатель на план внутри снимка.
func (s *Snapshot) PlanByID(id string) (*Plan, bool) {
	for i := range s.Plans {
		if s.Plans[i].ID == id {
			return &s.Plans[i], true
		}
	}
	return nil, false
}

// SubscriptionByID возвращает указатель на подписку внутри снимка.
func (s *Snapshot) SubscriptionByID(id string) (*Subscription, bool) {
	for i := range s.Subscriptions {
		if s.Subscriptions[i].ID == id {
			return &s.Subscriptions[i], true
		}
	}
	return nil, false
}
