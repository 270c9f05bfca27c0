// Package plans реализует HTTP-обработчики тарифных планов бизнеса
// и публичного каталога бизнесов.
package plans

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/suscridash/internal/http/middlewarectx"
	"github.com/magabrotheeeer/suscridash/internal/http/response"
	"github.com/magabrotheeeer/suscridash/internal/lib/sl"
	"github.com/magabrotheeeer/suscridash/internal/models"
	plansservice "github.com/magabrotheeeer/suscridash/internal/services/plans"
)

// Service описывает управление планами.
type Service interface {
	List(p *models.Principal) ([]models.Plan, error)
	Get(p *models.Principal, id string) (*models.Plan, error)
	Create(ctx context.Context, p *models.Principal, req plansservice.CreateRequest) (*models.Plan, error)
	Update(ctx context.Context, p *models.Principal, id string, req plansservice.UpdateRequest) (*models.Plan, error)
	Toggle(ctx context.Context, p *models.Principal, id string) (*models.Plan, error)
	Delete(ctx context.Context, p *models.Principal, id string) error
	PublicBusinesses(q string) []plansservice.Business
	PublicPlans(businessID string) ([]models.Plan, error)
}

// Handler обрабатывает запросы /api/business/plans и /api/businesses.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// List godoc
// @Summary Планы бизнеса
// @Tags Business
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.Plan}
// @Failure 403 {object} response.ErrorResponse
// @Router /business/plans [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.plans.List")

	plans, err := h.service.List(middlewarectx.PrincipalFrom(r.Context()))
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, http.StatusOK, plans)
}

// Get godoc
// @Summary План бизнеса
// @Tags Business
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID плана"
// @Success 200 {object} response.Response{data=models.Plan}
// @Failure 403 {object} response.ErrorResponse "План другого бизнеса"
// @Failure 404 {object} response.ErrorResponse
// @Router /business/plans/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.plans.Get")

	plan, err := h.service.Get(middlewarectx.PrincipalFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, http.StatusOK, plan)
}

// Create godoc
// @Summary Создание плана
// @Description Валюта по умолчанию CLP, период mes, статус activo.
// @Tags Business
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body plansservice.CreateRequest true "План"
// @Success 201 {object} response.Response{data=models.Plan}
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /business/plans [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.plans.Create")

	var req plansservice.CreateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.BadRequest(w, r, "failed to decode request")
		return
	}

	plan, err := h.service.Create(r.Context(), middlewarectx.PrincipalFrom(r.Context()), req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, http.StatusCreated, plan)
}

// Update godoc
// @Summary Изменение плана
// @Tags Business
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID плана"
// @Param request body plansservice.UpdateRequest true "Изменяемые поля"
// @Success 200 {object} response.Response{data=models.Plan}
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /business/plans/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.plans.Update")

	var req plansservice.UpdateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.BadRequest(w, r, "failed to decode request")
		return
	}

	plan, err := h.service.Update(r.Context(), middlewarectx.PrincipalFrom(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, http.StatusOK, plan)
}

// Toggle godoc
// @Summary Переключение статуса плана
// @Tags Business
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID плана"
// @Success 200 {object} response.Response{data=models.Plan}
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /business/plans/{id}/toggle [patch]
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.plans.Toggle")

	plan, err := h.service.Toggle(r.Context(), middlewarectx.PrincipalFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, http.StatusOK, plan)
}

// Delete godoc
// @Summary Удаление плана
// @Description Подписки на план не удаляются.
// @Tags Business
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID плана"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /business/plans/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.plans.Delete")

	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), middlewarectx.PrincipalFrom(r.Context()), id); err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, http.StatusOK, map[string]string{"id": id})
}

// PublicBusinesses godoc
// @Summary Каталог активных бизнесов
// @Tags Public
// @Produce json
// @Param q query string false "Подстрока названия"
// @Success 200 {object} response.Response{data=[]plansservice.Business}
// @Router /businesses [get]
func (h *Handler) PublicBusinesses(w http.ResponseWriter, r *http.Request) {
	response.OK(w, r, http.StatusOK, h.service.PublicBusinesses(r.URL.Query().Get("q")))
}

// PublicPlans godoc
// @Summary Активные планы бизнеса
// @Tags Public
// @Produce json
// @Param id path string true "ID бизнеса"
// @Success 200 {object} response.Response{data=[]models.Plan}
// @Failure 404 {object} response.ErrorResponse
// @Router /businesses/{id}/plans [get]
func (h *Handler) PublicPlans(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.plans.PublicPlans")

	plans, err := h.service.PublicPlans(chi.URLParam(r, "id"))
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, http.StatusOK, plans)
}
