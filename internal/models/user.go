// Package models содержит доменные структуры: пользователей, планы подписки,
// подписки, системные настройки и снимок хранилища, в котором они лежат.
package models

import "time"

// Role — роль пользователя.
type Role string

// Роли пользователей.
const (
	RoleAdmin    Role = "admin"
	RoleBusiness Role = "business"
	RoleCustomer Role = "customer"
)

// Valid сообщает, известна ли роль.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleBusiness, RoleCustomer:
		return true
	}
	return false
}

// User — учётная запись. Поля BusinessName, TaxID, Status и Subscribers
// заполняются только для роли business.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Name         string    `json:"name"`
	Role         Role      `json:"user_type"`
	BusinessName string    `json:"business_name,omitempty"`
	TaxID        string    `json:"tax_id,omitempty"`
	Status       string    `json:"status,omitempty"`
	Subscribers  int       `json:"subscriptions,omitempty"` // Денормализованное число подписчиков
	CreatedAt    time.Time `json:"created_at"`
}

// UserResponse — представление пользователя для ответа API, без хеша пароля.
type UserResponse struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"user_type"`
	BusinessName string    `json:"business_name"`
	TaxID        string    `json:"tax_id"`
	Status       string    `json:"status,omitempty"`
	Subscribers  int       `json:"subscriptions"`
	CreatedAt    time.Time `json:"created_at"`
}

// Response возвращает публичное представление пользователя.
func (u *User) Response() UserResponse {
	return UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Role:         u.Role,
		BusinessName: u.BusinessName,
		TaxID:        u.TaxID,
		Status:       u.Status,
		Subscribers:  u.Subscribers,
		CreatedAt:    u.CreatedAt,
	}
}

// DisplayName возвращает название компании для бизнеса и имя для остальных.
func (u *User) DisplayName() string {
	if u.Role == RoleBusiness && u.BusinessName != "" {
		return u.BusinessName
	}
	return u.Name
}

// Principal — проверенная личность вызывающего, полученная из токена доступа.
type Principal struct {
	UserID string
	Email  string
	Role   Role
}
