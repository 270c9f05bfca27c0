package models

import "time"

// Settings — единственные на весь процесс системные настройки.
type Settings struct {
	SystemName         string    `json:"system_name"`
	Currency           string    `json:"currency"`
	LogoURL            string    `json:"logo_url"`
	SessionTimeout     int       `json:"session_timeout"` // в минутах
	EmailNotifications bool      `json:"email_notifications"`
	AppNotifications   bool      `json:"app_notifications"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// DefaultSettings возвращает настройки по умолчанию, созданные в момент now.
func DefaultSettings(now time.Time) Settings {
	return Settings{
		SystemName:         "Suscridash",
		Currency:           "CLP",
		SessionTimeout:     30,
		EmailNotifications: true,
		AppNotifications:   true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}
