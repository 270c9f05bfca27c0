// Package auth реализует HTTP-обработчики входа, регистрации, обновления токена
// и профиля текущего пользователя.
package auth

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
	authservice "github.com/magabrotheeeer/suscridash/internal/services/auth"
)

// Service описывает бизнес-логику аутентификации.
type Service interface {
	Login(req authservice.LoginRequest) (*authservice.Session, error)
	RegisterAndIssue(ctx context.Context, req authservice.RegisterRequest) (*authservice.Session, error)
	Refresh(refreshToken string) (*authservice.AccessToken, error)
	Me(p *models.Principal) (*models.UserResponse, error)
}

// RefreshRequest — тело запроса обновления токена.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Handler обрабатывает запросы /api/auth.
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

// Login godoc
// @Summary Вход пользователя
// @Description Проверяет email, пароль и роль. Возвращает токен доступа, токен обновления и профиль.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body authservice.LoginRequest true "Учетные данные"
// @Success 200 {object} response.Response{data=authservice.Session}
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.auth.Login")

	var req authservice.LoginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.BadRequest(w, r, "failed to decode request")
		return
	}

	session, err := h.service.Login(req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	log.Info("login success", slog.String("user_id", session.User.ID), slog.String("user_type", string(session.User.Role)))
	response.OK(w, r, http.StatusOK, session)
}

// Register godoc
// @Summary Регистрация пользователя
// @Description Создает клиента или бизнес и сразу выдает токен доступа.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body authservice.RegisterRequest true "Данные регистрации"
// @Success 201 {object} response.Response{data=authservice.Session}
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации или пользователь уже существует"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.auth.Register")

	var req authservice.RegisterRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.BadRequest(w, r, "failed to decode request")
		return
	}

	session, err := h.service.RegisterAndIssue(r.Context(), req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	log.Info("user registered", slog.String("user_id", session.User.ID))
	response.OK(w, r, http.StatusCreated, session)
}

// Refresh godoc
// @Summary Обновление токена доступа
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Токен обновления"
// @Success 200 {object} response.Response{data=authservice.AccessToken}
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Токен истек или недействителен"
// @Router /auth/refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.auth.Refresh")

	var req RefreshRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.BadRequest(w, r, "failed to decode request")
		return
	}

	token, err := h.service.Refresh(req.RefreshToken)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, http.StatusOK, token)
}

// Me godoc
// @Summary Профиль текущего пользователя
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.UserResponse}
// @Failure 401 {object} response.ErrorResponse "Нет или недействителен токен"
// @Failure 404 {object} response.ErrorResponse "Пользователь удален"
// @Router /auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.auth.Me")

	user, err := h.service.Me(middlewarectx.PrincipalFrom(r.Context()))
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, http.StatusOK, user)
}
