// Package users реализует административные HTTP-обработчики пользователей
// и справочника бизнесов.
package users

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
	usersservice "github.com/magabrotheeeer/suscridash/internal/services/users"
)

// Service описывает административное управление пользователями.
type Service interface {
	List(p *models.Principal, f usersservice.Filter) ([]models.UserResponse, error)
	Businesses(p *models.Principal, query, status string) ([]models.UserResponse, error)
	RecentBusinesses(p *models.Principal) ([]models.UserResponse, error)
	Get(p *models.Principal, id string) (*models.UserResponse, error)
	Update(ctx context.Context, p *models.Principal, id string, req usersservice.UpdateRequest) (*models.UserResponse, error)
	Delete(ctx context.Context, p *models.Principal, id string) error
}

// Handler обрабатывает запросы /api/admin/users и /api/admin/businesses.
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
// @Summary Список пользователей
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param q query string false "Подстрока имени, компании или email"
// @Param status query string false "Статус (all и todos означают любой)"
// @Param user_type query string false "Роль"
// @Success 200 {object} response.Response{data=[]models.UserResponse}
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /admin/users [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.users.List")

	q := r.URL.Query()
	users, err := h.service.List(middlewarectx.PrincipalFrom(r.Context()), usersservice.Filter{
		Query:    q.Get("q"),
		Status:   q.Get("status"),
		UserType: models.Role(q.Get("user_type")),
	})
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, http.StatusOK, users)
}

// Businesses godoc
// @Summary Справочник бизнесов
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param q query string false "Подстрока названия, имени или email"
// @Param status query string false "Статус (all и todos означают любой)"
// @Success 200 {object} response.Response{data=[]models.UserResponse}
// @Failure 403 {object} response.ErrorResponse
// @Router /admin/businesses [get]
func (h *Handler) Businesses(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.users.Businesses")

	q := r.URL.Query()
	businesses, err := h.service.Businesses(middlewarectx.PrincipalFrom(r.Context()), q.Get("q"), q.Get("status"))
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, http.StatusOK, businesses)
}

// RecentBusinesses godoc
// @Summary Последние зарегистрированные бизнесы
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.UserResponse}
// @Failure 403 {object} response.ErrorResponse
// @Router /admin/businesses/recent [get]
func (h *Handler) RecentBusinesses(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.users.RecentBusinesses")

	businesses, err := h.service.RecentBusinesses(middlewarectx.PrincipalFrom(r.Context()))
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, http.StatusOK, businesses)
}

// Get godoc
// @Summary Пользователь по идентификатору
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID пользователя"
// @Success 200 {object} response.Response{data=models.UserResponse}
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/users/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.users.Get")

	user, err := h.service.Get(middlewarectx.PrincipalFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, http.StatusOK, user)
}

// Update godoc
// @Summary Изменение пользователя
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID пользователя"
// @Param request body usersservice.UpdateRequest true "Изменяемые поля"
// @Success 200 {object} response.Response{data=models.UserResponse}
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/users/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.users.Update")

	var req usersservice.UpdateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.BadRequest(w, r, "failed to decode request")
		return
	}

	user, err := h.service.Update(r.Context(), middlewarectx.PrincipalFrom(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, http.StatusOK, user)
}

// Delete godoc
// @Summary Удаление пользователя
// @Description Администратора удалить нельзя.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID пользователя"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/users/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.users.Delete")

	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), middlewarectx.PrincipalFrom(r.Context()), id); err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, http.StatusOK, map[string]string{"id": id})
}
