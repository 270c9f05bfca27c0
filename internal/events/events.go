// Package events описывает доменные события, публикуемые после успешной записи в хранилище.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/suscridash/internal/lib/sl"
)

// Ключи маршрутизации событий.
const (
	UserRegistered            = "user.registered"
	SubscriptionCreated       = "subscription.created"
	SubscriptionStatusChanged = "subscription.status_changed"
	PlanDeleted               = "plan.deleted"
	RenewalUpcoming           = "renewal.upcoming"
)

// Publisher публикует событие с ключом маршрутизации.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// Noop — издатель, который ничего не отправляет. Используется, когда брокер не настроен.
type Noop struct{}

// Publish ничего не делает.
func (Noop) Publish(context.Context, string, any) error { return nil }

type observed struct {
	pub     Publisher
	observe func(routingKey string, err error)
}

// Observed оборачивает pub так, что результат каждой публикации передаётся в observe.
func Observed(pub Publisher, observe func(routingKey string, err error)) Publisher {
	return &observed{pub: pub, observe: observe}
}

func (o *observed) Publish(ctx context.Context, routingKey string, event any) error {
	err := o.pub.Publish(ctx, routingKey, event)
	o.observe(routingKey, err)
	return err
}

// Emit публикует событие после уже подтверждённой записи.
// Ошибка брокера только логируется: откатывать сохранённую мутацию поздно.
func Emit(ctx context.Context, pub Publisher, log *slog.Logger, routingKey string, event any) {
	if err := pub.Publish(ctx, routingKey, event); err != nil {
		log.Error("failed to publish event", slog.String("routing_key", routingKey), sl.Err(err))
	}
}

// UserRegisteredEvent отправляется после регистрации пользователя.
type UserRegisteredEvent struct {
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       string    `json:"user_type"`
	OccurredAt time.Time `json:"occurred_at"`
}

// SubscriptionEvent отправляется при создании подписки, смене её статуса
// и планировщиком перед продлением.
type SubscriptionEvent struct {
	SubscriptionID string    `json:"subscription_id"`
	BusinessID     string    `json:"business_id"`
	BusinessName   string    `json:"business_name"`
	CustomerID     string    `json:"customer_id"`
	CustomerEmail  string    `json:"customer_email"`
	CustomerName   string    `json:"customer_name"`
	PlanID         string    `json:"plan_id"`
	PlanName       string    `json:"plan_name"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	Amount         float64   `json:"amount"`
	RenewalDate    string    `json:"renewal_date"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// PlanDeletedEvent отправляется после удаления плана.
// DanglingSubscriptions — число подписок, которые продолжают ссылаться на удалённый план.
type PlanDeletedEvent struct {
	PlanID                string    `json:"plan_id"`
	PlanName              string    `json:"plan_name"`
	BusinessID            string    `json:"business_id"`
	BusinessEmail         string    `json:"business_email"`
	BusinessName          string    `json:"business_name"`
	DanglingSubscriptions int       `json:"dangling_subscriptions"`
	OccurredAt            time.Time `json:"occurred_at"`
}
