// Package plans содержит управление тарифными планами бизнеса
// и публичный каталог бизнесов и их активных планов.
package plans

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/suscridash/internal/events"
	"github.com/magabrotheeeer/suscridash/internal/lib/apperr"
	"github.com/magabrotheeeer/suscridash/internal/lib/search"
	"github.com/magabrotheeeer/suscridash/internal/lib/validate"
	"github.com/magabrotheeeer/suscridash/internal/models"
	"github.com/magabrotheeeer/suscridash/internal/services/guard"
	"github.com/magabrotheeeer/suscridash/internal/storage"
)

// Значения по умолчанию для новых планов.
const (
	DefaultCurrency = "CLP"
	DefaultPeriod   = "mes"
)

// CreateRequest — поля нового плана.
type CreateRequest struct {
	Name        string   `json:"nombre" validate:"required"`
	Price       float64  `json:"precio" validate:"gt=0"`
	Currency    string   `json:"moneda"`
	Period      string   `json:"periodo"`
	Description string   `json:"descripcion"`
	Features    []string `json:"caracteristicas"`
	Status      string   `json:"estado" validate:"omitempty,oneof=activo inactivo"`
}

// UpdateRequest — изменяемые поля плана. nil означает «не менять».
type UpdateRequest struct {
	Name        *string   `json:"nombre"`
	Price       *float64  `json:"precio" validate:"omitempty,gt=0"`
	Currency    *string   `json:"moneda"`
	Period      *string   `json:"periodo"`
	Description *string   `json:"descripcion"`
	Features    *[]string `json:"caracteristicas"`
	Status      *string   `json:"estado" validate:"omitempty,oneof=activo inactivo"`
}

// Business — карточка бизнеса в публичном каталоге.
type Business struct {
	ID           string    `json:"id"`
	BusinessName string    `json:"business_name"`
	Name         string    `json:"name"`
	ActivePlans  int       `json:"active_plans"`
	CreatedAt    time.Time `json:"created_at"`
}

// Service — менеджер планов.
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

func cleanFeatures(in []string) []string {
	out := make([]string, 0, len(in))
	for _, f := range in {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

// ownPlan находит план и проверяет, что он принадлежит бизнесу p.
func ownPlan(snap *models.Snapshot, p *models.Principal, id string) (*models.Plan, error) {
	plan, ok := snap.PlanByID(id)
	if !ok {
		return nil, apperr.NotFound("plan not found")
	}
	if plan.BusinessID != p.UserID {
		return nil, apperr.Forbidden("plan belongs to another business")
	}
	return plan, nil
}

// List возвращает планы бизнеса в порядке создания.
func (s *Service) List(p *models.Principal) ([]models.Plan, error) {
	if err := guard.Require(p, models.RoleBusiness); err != nil {
		return nil, err
	}
	out := []models.Plan{}
	_ = s.store.View(func(snap *models.Snapshot) error {
		for _, plan := range snap.Plans {
			if plan.BusinessID == p.UserID {
				out = append(out, plan.Clone())
			}
		}
		return nil
	})
	return out, nil
}

// Get возвращает собственный план бизнеса.
func (s *Service) Get(p *models.Principal, id string) (*models.Plan, error) {
	if err := guard.Require(p, models.RoleBusiness); err != nil {
		return nil, err
	}
	var out models.Plan
	err := s.store.View(func(snap *models.Snapshot) error {
		plan, err := ownPlan(snap, p, id)
		if err != nil {
			return err
		}
		out = plan.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Create создаёт план бизнеса. Валюта, период и статус получают значения по умолчанию.
func (s *Service) Create(ctx context.Context, p *models.Principal, req CreateRequest) (*models.Plan, error) {
	const op = "services.plans.Create"
	if err := guard.Require(p, models.RoleBusiness); err != nil {
		return nil, err
	}
	log := s.log.With(slog.String("op", op), slog.String("business_id", p.UserID))

	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Validation("field nombre is a required field")
	}

	plan := models.Plan{
		ID:          uuid.NewString(),
		BusinessID:  p.UserID,
		Name:        strings.TrimSpace(req.Name),
		Price:       req.Price,
		Currency:    orDefault(req.Currency, DefaultCurrency),
		Period:      orDefault(req.Period, DefaultPeriod),
		Description: strings.TrimSpace(req.Description),
		Features:    cleanFeatures(req.Features),
		Status:      orDefault(req.Status, models.PlanActive),
		CreatedAt:   s.now().UTC(),
	}

	err := s.store.Update(ctx, func(snap *models.Snapshot) error {
		if _, ok := snap.UserByID(p.UserID); !ok {
			return apperr.NotFound("business not found")
		}
		snap.Plans = append(snap.Plans, plan)
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info("plan created", slog.String("plan_id", plan.ID))
	return &plan, nil
}

// Update объединяет переданные поля с текущим планом.
func (s *Service) Update(ctx context.Context, p *models.Principal, id string, req UpdateRequest) (*models.Plan, error) {
	const op = "services.plans.Update"
	log := s.log.With(slog.String("op", op), slog.String("plan_id", id))

	if err := guard.Require(p, models.RoleBusiness); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, apperr.Validation("field nombre must not be empty")
	}

	var out models.Plan
	err := s.store.Update(ctx, func(snap *models.Snapshot) error {
		plan, err := ownPlan(snap, p, id)
		if err != nil {
			return err
		}
		if req.Name != nil {
			plan.Name = strings.TrimSpace(*req.Name)
		}
		if req.Price != nil {
			plan.Price = *req.Price
		}
		if req.Currency != nil {
			plan.Currency = orDefault(*req.Currency, DefaultCurrency)
		}
		if req.Period != nil {
			plan.Period = orDefault(*req.Period, DefaultPeriod)
		}
		if req.Description != nil {
			plan.Description = strings.TrimSpace(*req.Description)
		}
		if req.Features != nil {
			plan.Features = cleanFeatures(*req.Features)
		}
		if req.Status != nil {
			plan.Status = *req.Status
		}
		out = plan.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info("plan updated")
	return &out, nil
}

// Toggle переключает статус плана между activo и inactivo.
func (s *Service) Toggle(ctx context.Context, p *models.Principal, id string) (*models.Plan, error) {
	const op = "services.plans.Toggle"

	if err := guard.Require(p, models.RoleBusiness); err != nil {
		return nil, err
	}
	var out models.Plan
	err := s.store.Update(ctx, func(snap *models.Snapshot) error {
		plan, err := ownPlan(snap, p, id)
		if err != nil {
			return err
		}
		if plan.Status == models.PlanActive {
			plan.Status = models.PlanInactive
		} else {
			plan.Status = models.PlanActive
		}
		out = plan.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("plan toggled", slog.String("op", op), slog.String("plan_id", id), slog.String("estado", out.Status))
	return &out, nil
}

// Delete удаляет план. Подписки на него остаются и продолжают ссылаться на удалённый план.
func (s *Service) Delete(ctx context.Context, p *models.Principal, id string) error {
	const op = "services.plans.Delete"
	log := s.log.With(slog.String("op", op), slog.String("plan_id", id))

	if err := guard.Require(p, models.RoleBusiness); err != nil {
		return err
	}
	dangling := 0
	ev := events.PlanDeletedEvent{PlanID: id, BusinessID: p.UserID}
	err := s.store.Update(ctx, func(snap *models.Snapshot) error {
		plan, err := ownPlan(snap, p, id)
		if err != nil {
			return err
		}
		ev.PlanName = plan.Name
		if owner, ok := snap.UserByID(p.UserID); ok {
			ev.BusinessEmail = owner.Email
			ev.BusinessName = owner.DisplayName()
		}
		for i := range snap.Plans {
			if snap.Plans[i].ID == id {
				snap.Plans = append(snap.Plans[:i], snap.Plans[i+1:]...)
				break
			}
		}
		for _, sub := range snap.Subscriptions {
			if sub.PlanID == id {
				dangling++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("plan deleted", slog.Int("dangling_subscriptions", dangling))
	ev.DanglingSubscriptions = dangling
	ev.OccurredAt = s.now().UTC()
	events.Emit(ctx, s.events, log, events.PlanDeleted, ev)
	return nil
}

// PublicBusinesses возвращает активные бизнесы, отобранные по подстроке q.
func (s *Service) PublicBusinesses(q string) []Business {
	out := []Business{}
	_ = s.store.View(func(snap *models.Snapshot) error {
		active := make(map[string]int)
		for _, plan := range snap.Plans {
			if plan.Status == models.PlanActive {
				active[plan.BusinessID]++
			}
		}
		for _, u := range snap.Users {
			if u.Role != models.RoleBusiness || u.Status != "active" {
				continue
			}
			if !search.TextMatches(q, u.BusinessName, u.Name) {
				continue
			}
			out = append(out, Business{
				ID:           u.ID,
				BusinessName: u.BusinessName,
				Name:         u.Name,
				ActivePlans:  active[u.ID],
				CreatedAt:    u.CreatedAt,
			})
		}
		return nil
	})
	return out
}

// PublicPlans возвращает активные планы бизнеса businessID.
func (s *Service) PublicPlans(businessID string) ([]models.Plan, error) {
	out := []models.Plan{}
	err := s.store.View(func(snap *models.Snapshot) error {
		u, ok := snap.UserByID(businessID)
		if !ok || u.Role != models.RoleBusiness {
			return apperr.NotFound("business not found")
		}
		for _, plan := range snap.Plans {
			if plan.BusinessID == businessID && plan.Status == models.PlanActive {
				out = append(out, plan.Clone())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
