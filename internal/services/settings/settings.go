// Package settings управляет системными настройками.
package settings

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/suscridash/internal/lib/apperr"
	"github.com/magabrotheeeer/suscridash/internal/lib/validate"
	"github.com/magabrotheeeer/suscridash/internal/models"
	"github.com/magabrotheeeer/suscridash/internal/services/guard"
	"github.com/magabrotheeeer/suscridash/internal/storage"
)

// UpdateRequest — изменяемые поля настроек. nil означает «не менять».
type UpdateRequest struct {
	SystemName         *string `json:"system_name"`
	Currency           *string `json:"currency"`
	LogoURL            *string `json:"logo_url"`
	SessionTimeout     *int    `json:"session_timeout" validate:"omitempty,gt=0"`
	EmailNotifications *bool   `json:"email_notifications"`
	AppNotifications   *bool   `json:"app_notifications"`
}

// Service — менеджер настроек.
type Service struct {
	store *storage.Store
	log   *slog.Logger
	now   func() time.Time
}

// New создаёт Service.
func New(store *storage.Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

// WithClock подменяет источник времени.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Get возвращает настройки. При первом чтении создаёт и сохраняет значения по умолчанию.
func (s *Service) Get(ctx context.Context, p *models.Principal) (*models.Settings, error) {
	if err := guard.Require(p, models.RoleAdmin); err != nil {
		return nil, err
	}

	var out *models.Settings
	_ = s.store.View(func(snap *models.Snapshot) error {
		if snap.Settings != nil {
			c := *snap.Settings
			out = &c
		}
		return nil
	})
	if out != nil {
		return out, nil
	}

	var created models.Settings
	err := s.store.Update(ctx, func(snap *models.Snapshot) error {
		if snap.Settings == nil {
			defaults := models.DefaultSettings(s.now().UTC())
			snap.Settings = &defaults
		}
		created = *snap.Settings
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("settings materialized with defaults", slog.String("op", "services.settings.Get"))
	return &created, nil
}

// Update объединяет переданные поля с текущими настройками.
// Время создания не меняется, время обновления выставляется в текущее.
func (s *Service) Update(ctx context.Context, p *models.Principal, req UpdateRequest) (*models.Settings, error) {
	const op = "services.settings.Update"

	if err := guard.Require(p, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if req.SystemName != nil && strings.TrimSpace(*req.SystemName) == "" {
		return nil, apperr.Validation("field system_name must not be empty")
	}
	if req.Currency != nil && strings.TrimSpace(*req.Currency) == "" {
		return nil, apperr.Validation("field currency must not be empty")
	}

	var out models.Settings
	err := s.store.Update(ctx, func(snap *models.Snapshot) error {
		now := s.now().UTC()
		if snap.Settings == nil {
			defaults := models.DefaultSettings(now)
			snap.Settings = &defaults
		}
		st := snap.Settings
		if req.SystemName != nil {
			st.SystemName = strings.TrimSpace(*req.SystemName)
		}
		if req.Currency != nil {
			st.Currency = strings.ToUpper(strings.TrimSpace(*req.Currency))
		}
		if req.LogoURL != nil {
			st.LogoURL = strings.TrimSpace(*req.LogoURL)
		}
		if req.SessionTimeout != nil {
			st.SessionTimeout = *req.SessionTimeout
		}
		if req.EmailNotifications != nil {
			st.EmailNotifications = *req.EmailNotifications
		}
		if req.AppNotifications != nil {
			st.AppNotifications = *req.AppNotifications
		}
		st.UpdatedAt = now
		out = *st
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("settings updated", slog.String("op", op))
	return &out, nil
}
