// Package settings реализует HTTP-обработчики системных настроек и сводной статистики.
package settings

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/suscridash/internal/http/middlewarectx"
	"github.com/magabrotheeeer/suscridash/internal/http/response"
	"github.com/magabrotheeeer/suscridash/internal/lib/sl"
	"github.com/magabrotheeeer/suscridash/internal/models"
	settingsservice "github.com/magabrotheeeer/suscridash/internal/services/settings"
	"github.com/magabrotheeeer/suscridash/internal/services/stats"
)

// Service описывает работу с настройками.
type Service interface {
	Get(ctx context.Context, p *models.Principal) (*models.Settings, error)
	Update(ctx context.Context, p *models.Principal, req settingsservice.UpdateRequest) (*models.Settings, error)
}

// StatsService возвращает сводную статистику.
type StatsService interface {
	Get(ctx context.Context, p *models.Principal) (*stats.Stats, error)
}

// Handler обрабатывает запросы /api/admin/settings и /api/admin/stats.
type Handler struct {
	log      *slog.Logger
	settings Service
	stats    StatsService
}

// New создает Handler.
func New(log *slog.Logger, settings Service, stats StatsService) *Handler {
	return &Handler{log: log, settings: settings, stats: stats}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// Get godoc
// @Summary Системные настройки
// @Description При первом обращении сохраняются значения по умолчанию.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.Settings}
// @Failure 403 {object} response.ErrorResponse
// @Router /admin/settings [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.settings.Get")

	s, err := h.settings.Get(r.Context(), middlewarectx.PrincipalFrom(r.Context()))
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, http.StatusOK, s)
}

// Update godoc
// @Summary Изменение системных настроек
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body settingsservice.UpdateRequest true "Изменяемые поля"
// @Success 200 {object} response.Response{data=models.Settings}
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /admin/settings [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.settings.Update")

	var req settingsservice.UpdateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.BadRequest(w, r, "failed to decode request")
		return
	}

	s, err := h.settings.Update(r.Context(), middlewarectx.PrincipalFrom(r.Context()), req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	log.Info("settings updated")
	response.OK(w, r, http.StatusOK, s)
}

// Stats godoc
// @Summary Сводная статистика
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=stats.Stats}
// @Failure 403 {object} response.ErrorResponse
// @Router /admin/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.settings.Stats")

	s, err := h.stats.Get(r.Context(), middlewarectx.PrincipalFrom(r.Context()))
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, http.StatusOK, s)
}
