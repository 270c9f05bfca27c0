package models

import "time"

// SubscriptionStatus — статус подписки.
type SubscriptionStatus string

// Статусы подписки.
const (
	StatusActive    SubscriptionStatus = "active"
	StatusPending   SubscriptionStatus = "pending"
	StatusCancelled SubscriptionStatus = "cancelled"
)

// Valid сообщает, известен ли статус.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case StatusActive, StatusPending, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo сообщает, допустим ли переход в статус next.
//
// Допустимы pending → active, active → cancelled, pending → cancelled
// и повтор текущего статуса. Из cancelled выхода нет.
func (s SubscriptionStatus) CanTransitionTo(next SubscriptionStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusActive || next == StatusCancelled
	case StatusActive:
		return next == StatusCancelled
	}
	return false
}

// Subscription — привязка клиента к плану бизнеса.
// Даты начала и продления хранятся в формате YYYY-MM-DD.
type Subscription struct {
	ID            string             `json:"id"`
	BusinessID    string             `json:"business_id"`
	CustomerID    string             `json:"customer_id"`
	PlanID        string             `json:"plan_id"`
	StartDate     string             `json:"start_date"`
	RenewalDate   string             `json:"renewal_date"`
	Status        SubscriptionStatus `json:"status"`
	Amount        float64            `json:"amount"`
	PaymentMethod string             `json:"payment_method"`
	CreatedAt     time.Time          `json:"created_at"`
}

// SubscriberView — подписка вместе с данными клиента и названием плана.
type SubscriberView struct {
	Subscription
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	PlanName      string `json:"plan_name"`
	BusinessName  string `json:"business_name,omitempty"`
}
