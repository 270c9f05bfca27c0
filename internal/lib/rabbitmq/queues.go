package rabbitmq

import "github.com/magabrotheeeer/suscridash/internal/events"

// QueueConfig — очередь и ключи маршрутизации, которые к ней привязаны.
type QueueConfig struct {
	QueueName   string
	RoutingKeys []string
}

// Имена очередей уведомлений.
const (
	QueueSubscriptions = "notifications.subscriptions"
	QueueRenewals      = "notifications.renewals"
	QueueUsers         = "notifications.users"
	QueuePlans         = "notifications.plans"
)

// NotificationQueues возвращает очереди, которые читает сервис рассылки.
func NotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueueSubscriptions, RoutingKeys: []string{events.SubscriptionCreated, events.SubscriptionStatusChanged}},
		{QueueName: QueueRenewals, RoutingKeys: []string{events.RenewalUpcoming}},
		{QueueName: QueueUsers, RoutingKeys: []string{events.UserRegistered}},
		{QueueName: QueuePlans, RoutingKeys: []string{events.PlanDeleted}},
	}
}
