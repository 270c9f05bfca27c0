// Package scheduler ищет активные подписки с приближающимся продлением
// и публикует для них событие renewal.upcoming.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/suscridash/internal/events"
	"github.com/magabrotheeeer/suscridash/internal/lib/period"
	"github.com/magabrotheeeer/suscridash/internal/lib/sl"
	"github.com/magabrotheeeer/suscridash/internal/models"
)

// SnapshotSource отдаёт свежий снимок данных. storage.Backend подходит напрямую:
// планировщик работает отдельным процессом и перечитывает документ на каждом проходе.
type SnapshotSource interface {
	Load(ctx context.Context) (*models.Snapshot, error)
}

// Service — планировщик напоминаний о продлении.
type Service struct {
	source   SnapshotSource
	events   events.Publisher
	interval time.Duration
	lead     time.Duration
	log      *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	notified map[string]struct{} // id подписки + дата продления
}

// New создаёт Service.
func New(source SnapshotSource, pub events.Publisher, interval, lead time.Duration, log *slog.Logger) *Service {
	return &Service{
		source:   source,
		events:   pub,
		interval: interval,
		lead:     lead,
		log:      log,
		now:      time.Now,
		notified: make(map[string]struct{}),
	}
}

// WithClock подменяет источник времени.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Run выполняет проход сразу и затем с интервалом interval, пока ctx не отменён.
func (s *Service) Run(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Service) runOnce(ctx context.Context) {
	s.log.Info("looking for upcoming renewals")
	n, err := s.NotifyUpcoming(ctx)
	if err != nil {
		s.log.Error("failed to check renewals", sl.Err(err))
		return
	}
	if n == 0 {
		s.log.Info("no upcoming renewals found")
		return
	}
	s.log.Info("renewal reminders published", slog.Int("count", n))
}

// NotifyUpcoming публикует renewal.upcoming для каждой активной подписки, продление
// которой наступает в окне lead. О каждом продлении сообщается один раз за жизнь процесса.
// Возвращает число опубликованных событий.
func (s *Service) NotifyUpcoming(ctx context.Context) (int, error) {
	const op = "services.scheduler.NotifyUpcoming"

	snap, err := s.source.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	today := period.Today(now)
	published := 0
	for _, sub := range snap.Subscriptions {
		if sub.Status != models.StatusActive {
			continue
		}
		renewal, err := period.ParseDate(sub.RenewalDate)
		if err != nil {
			s.log.Warn("skipping subscription with malformed renewal date",
				slog.String("subscription_id", sub.ID), sl.Err(err))
			continue
		}
		if !period.RenewsWithin(renewal, today, s.lead) {
			continue
		}

		key := sub.ID + "@" + sub.RenewalDate
		if s.seen(key) {
			continue
		}

		ev := upcomingEvent(snap, sub, now)
		if err := s.events.Publish(ctx, events.RenewalUpcoming, ev); err != nil {
			s.log.Error("failed to publish renewal reminder",
				slog.String("subscription_id", sub.ID), sl.Err(err))
			continue
		}
		s.markSeen(key)
		published++
	}
	return published, nil
}

func (s *Service) seen(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.notified[key]
	return ok
}

func (s *Service) markSeen(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notified[key] = struct{}{}
}

func upcomingEvent(snap *models.Snapshot, sub models.Subscription, at time.Time) events.SubscriptionEvent {
	ev := events.SubscriptionEvent{
		SubscriptionID: sub.ID,
		BusinessID:     sub.BusinessID,
		CustomerID:     sub.CustomerID,
		PlanID:         sub.PlanID,
		Status:         string(sub.Status),
		Amount:         sub.Amount,
		RenewalDate:    sub.RenewalDate,
		OccurredAt:     at,
	}
	if c, ok := snap.UserByID(sub.CustomerID); ok {
		ev.CustomerEmail = c.Email
		ev.CustomerName = c.Name
	}
	if b, ok := snap.UserByID(sub.BusinessID); ok {
		ev.BusinessName = b.DisplayName()
	}
	if p, ok := snap.PlanByID(sub.PlanID); ok {
		ev.PlanName = p.Name
	}
	return ev
}
