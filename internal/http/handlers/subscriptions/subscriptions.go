// Package subscriptions реализует HTTP-обработчики подписок для бизнеса,
// клиента и администратора.
package subscriptions

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
	subsservice "github.com/magabrotheeeer/suscridash/internal/services/subscriptions"
)

// Service описывает управление подписками.
type Service interface {
	Subscribers(p *models.Principal, q, status string) ([]models.SubscriberView, error)
	List(p *models.Principal, q, status string) ([]models.SubscriberView, error)
	Create(ctx context.Context, p *models.Principal, req subsservice.CreateRequest) (*models.SubscriberView, error)
	AdminCreate(ctx context.Context, p *models.Principal, req subsservice.CreateRequest) (*models.SubscriberView, error)
	ChangeStatus(ctx context.Context, p *models.Principal, id string, req subsservice.StatusRequest) (*models.SubscriberView, error)
	AdminUpdate(ctx context.Context, p *models.Principal, id string, req subsservice.UpdateRequest) (*models.SubscriberView, error)
	AdminDelete(ctx context.Context, p *models.Principal, id string) error
	Current(p *models.Principal) (*subsservice.CustomerSubscription, error)
}

// Handler обрабатывает запросы, связанные с подписками.
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

type createFunc func(ctx context.Context, p *models.Principal, req subsservice.CreateRequest) (*models.SubscriberView, error)

func (h *Handler) create(w http.ResponseWriter, r *http.Request, op string, fn createFunc) {
	log := h.logger(r, op)

	var req subsservice.CreateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.BadRequest(w, r, "failed to decode request")
		return
	}

	sub, err := fn(r.Context(), middlewarectx.PrincipalFrom(r.Context()), req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	log.Info("subscription created", slog.String("subscription_id", sub.ID))
	response.OK(w, r, http.StatusCreated, sub)
}

// Subscribers godoc
// @Summary Подписчики бизнеса
// @Tags Business
// @Produce json
// @Security BearerAuth
// @Param q query string false "Подстрока имени, email или плана"
// @Param status query string false "Статус (all и todos означают любой)"
// @Success 200 {object} response.Response{data=[]models.SubscriberView}
// @Failure 403 {object} response.ErrorResponse
// @Router /business/subscribers [get]
func (h *Handler) Subscribers(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.subscriptions.Subscribers")

	q := r.URL.Query()
	subs, err := h.service.Subscribers(middlewarectx.PrincipalFrom(r.Context()), q.Get("q"), q.Get("status"))
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, http.StatusOK, subs)
}

// Create godoc
// @Summary Оформление подписки на план бизнеса
// @Tags Business
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body subsservice.CreateRequest true "Подписка"
// @Success 201 {object} response.Response{data=models.SubscriberView}
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /business/subscriptions [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, "handlers.subscriptions.Create", h.service.Create)
}

// ChangeStatus godoc
// @Summary Смена статуса подписки
// @Tags Business
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID подписки"
// @Param request body subsservice.StatusRequest true "Новый статус"
// @Success 200 {object} response.Response{data=models.SubscriberView}
// @Failure 400 {object} response.ErrorResponse "Недопустимый переход"
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /business/subscriptions/{id}/status [put]
func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.subscriptions.ChangeStatus")

	var req subsservice.StatusRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.BadRequest(w, r, "failed to decode request")
		return
	}

	sub, err := h.service.ChangeStatus(r.Context(), middlewarectx.PrincipalFrom(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, http.StatusOK, sub)
}

// Current godoc
// @Summary Текущая подписка клиента
// @Tags Customer
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=subsservice.CustomerSubscription}
// @Failure 403 {object} response.ErrorResponse
// @Router /customer/subscription [get]
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.subscriptions.Current")

	current, err := h.service.Current(middlewarectx.PrincipalFrom(r.Context()))
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, http.StatusOK, current)
}

// List godoc
// @Summary Все подписки
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param q query string false "Подстрока клиента, плана или бизнеса"
// @Param status query string false "Статус (all и todos означают любой)"
// @Success 200 {object} response.Response{data=[]models.SubscriberView}
// @Failure 403 {object} response.ErrorResponse
// @Router /admin/subscriptions [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.subscriptions.List")

	q := r.URL.Query()
	subs, err := h.service.List(middlewarectx.PrincipalFrom(r.Context()), q.Get("q"), q.Get("status"))
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, http.StatusOK, subs)
}

// AdminCreate godoc
// @Summary Создание подписки администратором
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body subsservice.CreateRequest true "Подписка"
// @Success 201 {object} response.Response{data=models.SubscriberView}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/subscriptions [post]
func (h *Handler) AdminCreate(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, "handlers.subscriptions.AdminCreate", h.service.AdminCreate)
}

// AdminUpdate godoc
// @Summary Изменение подписки администратором
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID подписки"
// @Param request body subsservice.UpdateRequest true "Изменяемые поля"
// @Success 200 {object} response.Response{data=models.SubscriberView}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/subscriptions/{id} [put]
func (h *Handler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.subscriptions.AdminUpdate")

	var req subsservice.UpdateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.BadRequest(w, r, "failed to decode request")
		return
	}

	sub, err := h.service.AdminUpdate(r.Context(), middlewarectx.PrincipalFrom(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, http.StatusOK, sub)
}

// AdminDelete godoc
// @Summary Удаление подписки
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID подписки"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/subscriptions/{id} [delete]
func (h *Handler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.subscriptions.AdminDelete")

	id := chi.URLParam(r, "id")
	if err := h.service.AdminDelete(r.Context(), middlewarectx.PrincipalFrom(r.Context()), id); err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, http.StatusOK, map[string]string{"id": id})
}
