// Package subscriptions содержит управление подписками для трёх ролей:
// бизнес ведёт своих подписчиков, клиент видит свою подписку, администратор управляет всеми.
package subscriptions

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/suscridash/internal/events"
	"github.com/magabrotheeeer/suscridash/internal/lib/apperr"
	"github.com/magabrotheeeer/suscridash/internal/lib/period"
	"github.com/magabrotheeeer/suscridash/internal/lib/search"
	"github.com/magabrotheeeer/suscridash/internal/lib/validate"
	"github.com/magabrotheeeer/suscridash/internal/models"
	"github.com/magabrotheeeer/suscridash/internal/services/guard"
	"github.com/magabrotheeeer/suscridash/internal/storage"
)

// CreateRequest — новая подписка клиента на план.
// Клиент задаётся идентификатором или email. Пустые сумма и дата начала
// заменяются ценой плана и сегодняшней датой.
type CreateRequest struct {
	CustomerID    string  `json:"customer_id"`
	CustomerEmail string  `json:"customer_email" validate:"omitempty,email"`
	PlanID        string  `json:"plan_id" validate:"required"`
	StartDate     string  `json:"start_date" validate:"date"`
	Status        string  `json:"status" validate:"omitempty,oneof=active pending"`
	Amount        float64 `json:"amount" validate:"gte=0"`
	PaymentMethod string  `json:"payment_method"`
}

// StatusRequest — новый статус подписки.
type StatusRequest struct {
	Status models.SubscriptionStatus `json:"status" validate:"required"`
}

// UpdateRequest — изменяемые администратором поля подписки. nil означает «не менять».
type UpdateRequest struct {
	PlanID        *string                    `json:"plan_id"`
	StartDate     *string                    `json:"start_date" validate:"omitempty,date"`
	Status        *models.SubscriptionStatus `json:"status"`
	Amount        *float64                   `json:"amount" validate:"omitempty,gt=0"`
	PaymentMethod *string                    `json:"payment_method"`
}

// CustomerSubscription — текущая подписка клиента с планом.
// Plan равен nil, если план удалён после оформления подписки.
type CustomerSubscription struct {
	HasSubscription bool                 `json:"hasSubscription"`
	Subscription    *models.Subscription `json:"subscription"`
	Plan            *models.Plan         `json:"plan"`
	BusinessName    string               `json:"business_name,omitempty"`
}

// Целевые статусы, доступные ролям.
var (
	businessTargets = []models.SubscriptionStatus{models.StatusActive, models.StatusCancelled}
	adminTargets    = []models.SubscriptionStatus{models.StatusActive, models.StatusPending, models.StatusCancelled}
)

// Service — менеджер подписок.
type Service struct {
	store  *storage.Store
	events events.Publisher
	log    *slog.Logger
	now    func() time.Time
}

// New создаёт Service.
func New(store *storage.Store, pub events.Publisher, log *slog.Logger) *Service {
	return &Service{store: store, events: pub, log: log, now: time.Now}
}

// WithClock подменяет источник времени. Используется в тестах.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func view(snap *models.Snapshot, sub models.Subscription) models.SubscriberView {
	v := models.SubscriberView{Subscription: sub}
	if c, ok := snap.UserByID(sub.CustomerID); ok {
		v.CustomerName = c.Name
		v.CustomerEmail = c.Email
	}
	if p, ok := snap.PlanByID(sub.PlanID); ok {
		v.PlanName = p.Name
	}
	if b, ok := snap.UserByID(sub.BusinessID); ok {
		v.BusinessName = b.DisplayName()
	}
	return v
}

func (s *Service) collect(q, status string, keep func(sub *models.Subscription) bool) []models.SubscriberView {
	out := []models.SubscriberView{}
	_ = s.store.View(func(snap *models.Snapshot) error {
		for i := range snap.Subscriptions {
			sub := &snap.Subscriptions[i]
			if !keep(sub) || !search.StatusMatches(status, string(sub.Status)) {
				continue
			}
			v := view(snap, *sub)
			if search.TextMatches(q, v.CustomerName, v.CustomerEmail) {
				out = append(out, v)
			}
		}
		return nil
	})
	search.RecentFirst(out, func(v models.SubscriberView) time.Time { return v.CreatedAt })
	return out
}

func eventFor(snap *models.Snapshot, sub models.Subscription, previous models.SubscriptionStatus, at time.Time) events.SubscriptionEvent {
	v := view(snap, sub)
	return events.SubscriptionEvent{
		SubscriptionID: sub.ID,
		BusinessID:     sub.BusinessID,
		BusinessName:   v.BusinessName,
		CustomerID:     sub.CustomerID,
		CustomerEmail:  v.CustomerEmail,
		CustomerName:   v.CustomerName,
		PlanID:         sub.PlanID,
		PlanName:       v.PlanName,
		Status:         string(sub.Status),
		PreviousStatus: string(previous),
		Amount:         sub.Amount,
		RenewalDate:    sub.RenewalDate,
		OccurredAt:     at,
	}
}

// Subscribers возвращает подписчиков бизнеса, отобранных по подстроке имени или email
// клиента и по статусу. Оба фильтра применяются одновременно.
func (s *Service) Subscribers(p *models.Principal, q, status string) ([]models.SubscriberView, error) {
	if err := guard.Require(p, models.RoleBusiness); err != nil {
		return nil, err
	}
	return s.collect(q, status, func(sub *models.Subscription) bool {
		return sub.BusinessID == p.UserID
	}), nil
}

// List возвращает все подписки для администратора.
func (s *Service) List(p *models.Principal, q, status string) ([]models.SubscriberView, error) {
	if err := guard.Require(p, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.collect(q, status, func(*models.Subscription) bool { return true }), nil
}

// Create оформляет подписку клиента на собственный план бизнеса.
func (s *Service) Create(ctx context.Context, p *models.Principal, req CreateRequest) (*models.SubscriberView, error) {
	if err := guard.Require(p, models.RoleBusiness); err != nil {
		return nil, err
	}
	return s.create(ctx, p, req, func(plan *models.Plan) error {
		if plan.BusinessID != p.UserID {
			return apperr.Forbidden("plan belongs to another business")
		}
		return nil
	})
}

// AdminCreate оформляет подписку от имени администратора на любой существующий план.
func (s *Service) AdminCreate(ctx context.Context, p *models.Principal, req CreateRequest) (*models.SubscriberView, error) {
	if err := guard.Require(p, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.create(ctx, p, req, func(*models.Plan) error { return nil })
}

func (s *Service) create(ctx context.Context, p *models.Principal, req CreateRequest, checkPlan func(*models.Plan) error) (*models.SubscriberView, error) {
	const op = "services.subscriptions.Create"
	log := s.log.With(slog.String("op", op), slog.String("caller_id", p.UserID))

	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if req.CustomerID == "" && req.CustomerEmail == "" {
		return nil, apperr.Validation("field customer_id or customer_email is required")
	}

	now := s.now().UTC()
	start := period.Today(now)
	if req.StartDate != "" {
		start, _ = period.ParseDate(req.StartDate)
	}
	status := models.StatusActive
	if req.Status != "" {
		status = models.SubscriptionStatus(req.Status)
	}

	var (
		out models.SubscriberView
		ev  events.SubscriptionEvent
	)
	err := s.store.Update(ctx, func(snap *models.Snapshot) error {
		plan, ok := snap.PlanByID(req.PlanID)
		if !ok {
			return apperr.NotFound("plan not found")
		}
		if err := checkPlan(plan); err != nil {
			return err
		}
		if plan.Status != models.PlanActive {
			return apperr.Validation("plan is not active")
		}

		customer, err := findCustomer(snap, req.CustomerID, req.CustomerEmail)
		if err != nil {
			return err
		}

		amount := req.Amount
		if amount == 0 {
			amount = plan.Price
		}
		sub := models.Subscription{
			ID:            uuid.NewString(),
			BusinessID:    plan.BusinessID,
			CustomerID:    customer.ID,
			PlanID:        plan.ID,
			StartDate:     period.FormatDate(start),
			RenewalDate:   period.FormatDate(period.RenewalDate(start)),
			Status:        status,
			Amount:        amount,
			PaymentMethod: strings.TrimSpace(req.PaymentMethod),
			CreatedAt:     now,
		}
		snap.Subscriptions = append(snap.Subscriptions, sub)
		if b, ok := snap.UserByID(plan.BusinessID); ok {
			b.Subscribers++
		}

		out = view(snap, sub)
		ev = eventFor(snap, sub, "", now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("subscription created", slog.String("subscription_id", out.ID), slog.String("plan_id", out.PlanID))
	events.Emit(ctx, s.events, log, events.SubscriptionCreated, ev)
	return &out, nil
}

func findCustomer(snap *models.Snapshot, id, email string) (*models.User, error) {
	for i := range snap.Users {
		u := &snap.Users[i]
		if u.Role != models.RoleCustomer {
			continue
		}
		if (id != "" && u.ID == id) || (id == "" && strings.EqualFold(u.Email, strings.TrimSpace(email))) {
			return u, nil
		}
	}
	return nil, apperr.NotFound("customer not found")
}

func allowed(target models.SubscriptionStatus, targets []models.SubscriptionStatus) bool {
	for _, t := range targets {
		if t == target {
			return true
		}
	}
	return false
}

// applyStatus переводит подписку в новый статус по машине состояний.
// Возвращает false, если статус не изменился.
func applyStatus(sub *models.Subscription, target models.SubscriptionStatus, targets []models.SubscriptionStatus) (bool, error) {
	if !allowed(target, targets) {
		return false, apperr.Validation("status " + string(target) + " is not allowed")
	}
	if sub.Status == target {
		return false, nil
	}
	if !sub.Status.CanTransitionTo(target) {
		return false, apperr.Validation("cannot change status from " + string(sub.Status) + " to " + string(target))
	}
	sub.Status = target
	return true, nil
}

// ChangeStatus меняет статус подписки бизнеса. Повтор текущего статуса ничего не записывает.
func (s *Service) ChangeStatus(ctx context.Context, p *models.Principal, id string, req StatusRequest) (*models.SubscriberView, error) {
	const op = "services.subscriptions.ChangeStatus"
	log := s.log.With(slog.String("op", op), slog.String("subscription_id", id))

	if err := guard.Require(p, models.RoleBusiness); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if !allowed(req.Status, businessTargets) {
		return nil, apperr.Validation("field status must be one of [active cancelled]")
	}

	var current models.SubscriberView
	err := s.store.View(func(snap *models.Snapshot) error {
		sub, ok := snap.SubscriptionByID(id)
		if !ok {
			return apperr.NotFound("subscription not found")
		}
		if sub.BusinessID != p.UserID {
			return apperr.Forbidden("subscription belongs to another business")
		}
		current = view(snap, *sub)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if current.Status == req.Status {
		return &current, nil
	}

	var (
		out models.SubscriberView
		ev  events.SubscriptionEvent
	)
	err = s.store.Update(ctx, func(snap *models.Snapshot) error {
		sub, ok := snap.SubscriptionByID(id)
		if !ok {
			return apperr.NotFound("subscription not found")
		}
		if sub.BusinessID != p.UserID {
			return apperr.Forbidden("subscription belongs to another business")
		}
		previous := sub.Status
		if _, err := applyStatus(sub, req.Status, businessTargets); err != nil {
			return err
		}
		out = view(snap, *sub)
		ev = eventFor(snap, *sub, previous, s.now().UTC())
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("subscription status changed", slog.String("status", string(out.Status)))
	events.Emit(ctx, s.events, log, events.SubscriptionStatusChanged, ev)
	return &out, nil
}

// AdminUpdate изменяет подписку от имени администратора.
// Новый план должен принадлежать тому же бизнесу, смена даты начала пересчитывает дату продления.
func (s *Service) AdminUpdate(ctx context.Context, p *models.Principal, id string, req UpdateRequest) (*models.SubscriberView, error) {
	const op = "services.subscriptions.AdminUpdate"
	log := s.log.With(slog.String("op", op), slog.String("subscription_id", id))

	if err := guard.Require(p, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	var (
		out     models.SubscriberView
		ev      events.SubscriptionEvent
		changed bool
	)
	err := s.store.Update(ctx, func(snap *models.Snapshot) error {
		sub, ok := snap.SubscriptionByID(id)
		if !ok {
			return apperr.NotFound("subscription not found")
		}
		previous := sub.Status

		if req.PlanID != nil && *req.PlanID != sub.PlanID {
			plan, ok := snap.PlanByID(*req.PlanID)
			if !ok {
				return apperr.NotFound("plan not found")
			}
			if plan.BusinessID != sub.BusinessID {
				return apperr.Validation("plan belongs to another business")
			}
			sub.PlanID = plan.ID
		}
		if req.StartDate != nil {
			start, _ := period.ParseDate(*req.StartDate)
			sub.StartDate = period.FormatDate(start)
			sub.RenewalDate = period.FormatDate(period.RenewalDate(start))
		}
		if req.Amount != nil {
			sub.Amount = *req.Amount
		}
		if req.PaymentMethod != nil {
			sub.PaymentMethod = strings.TrimSpace(*req.PaymentMethod)
		}
		if req.Status != nil {
			var err error
			if changed, err = applyStatus(sub, *req.Status, adminTargets); err != nil {
				return err
			}
		}
		out = view(snap, *sub)
		ev = eventFor(snap, *sub, previous, s.now().UTC())
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("subscription updated")
	if changed {
		events.Emit(ctx, s.events, log, events.SubscriptionStatusChanged, ev)
	}
	return &out, nil
}

// AdminDelete удаляет подписку и уменьшает счётчик подписчиков бизнеса.
func (s *Service) AdminDelete(ctx context.Context, p *models.Principal, id string) error {
	const op = "services.subscriptions.AdminDelete"

	if err := guard.Require(p, models.RoleAdmin); err != nil {
		return err
	}
	err := s.store.Update(ctx, func(snap *models.Snapshot) error {
		for i := range snap.Subscriptions {
			sub := snap.Subscriptions[i]
			if sub.ID != id {
				continue
			}
			snap.Subscriptions = append(snap.Subscriptions[:i], snap.Subscriptions[i+1:]...)
			if b, ok := snap.UserByID(sub.BusinessID); ok && b.Subscribers > 0 {
				b.Subscribers--
			}
			return nil
		}
		return apperr.NotFound("subscription not found")
	})
	if err != nil {
		return err
	}
	s.log.Info("subscription deleted", slog.String("op", op), slog.String("subscription_id", id))
	return nil
}

// Current возвращает текущую подписку клиента: самую новую не отменённую,
// а если таких нет, самую новую из отменённых.
func (s *Service) Current(p *models.Principal) (*CustomerSubscription, error) {
	if err := guard.Require(p, models.RoleCustomer); err != nil {
		return nil, err
	}

	out := &CustomerSubscription{}
	_ = s.store.View(func(snap *models.Snapshot) error {
		var best *models.Subscription
		better := func(cand *models.Subscription) bool {
			if best == nil {
				return true
			}
			candLive := cand.Status != models.StatusCancelled
			bestLive := best.Status != models.StatusCancelled
			if candLive != bestLive {
				return candLive
			}
			return cand.CreatedAt.After(best.CreatedAt)
		}
		for i := range snap.Subscriptions {
			sub := &snap.Subscriptions[i]
			if sub.CustomerID == p.UserID && better(sub) {
				best = sub
			}
		}
		if best == nil {
			return nil
		}

		sub := *best
		out.HasSubscription = true
		out.Subscription = &sub
		if plan, ok := snap.PlanByID(sub.PlanID); ok {
			c := plan.Clone()
			out.Plan = &c
		}
		if b, ok := snap.UserByID(sub.BusinessID); ok {
			out.BusinessName = b.DisplayName()
		}
		return nil
	})
	return out, nil
}
