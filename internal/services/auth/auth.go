// Package auth содержит сервис учётных данных: вход, регистрацию, обновление
// токена доступа и профиль текущего пользователя.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/suscridash/internal/events"
	"github.com/magabrotheeeer/suscridash/internal/lib/apperr"
	"github.com/magabrotheeeer/suscridash/internal/lib/jwt"
	"github.com/magabrotheeeer/suscridash/internal/lib/password"
	"github.com/magabrotheeeer/suscridash/internal/lib/validate"
	"github.com/magabrotheeeer/suscridash/internal/models"
	"github.com/magabrotheeeer/suscridash/internal/storage"
)

// LoginRequest — данные для входа. Пустой UserType означает customer.
type LoginRequest struct {
	Email    string      `json:"email" validate:"required"`
	Password string      `json:"password" validate:"required"`
	UserType models.Role `json:"userType"`
}

// RegisterRequest — данные для регистрации. Для business обязательны BusinessName и TaxID.
type RegisterRequest struct {
	Email           string      `json:"email" validate:"required,email"`
	Password        string      `json:"password" validate:"required"`
	ConfirmPassword string      `json:"confirmPassword" validate:"required"`
	FullName        string      `json:"fullName" validate:"required"`
	UserType        models.Role `json:"userType"`
	BusinessName    string      `json:"businessName"`
	TaxID           string      `json:"taxId"`
}

// Session — выданные токены и профиль пользователя.
type Session struct {
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time           `json:"expires_at"`
	User         models.UserResponse `json:"user"`
}

// AccessToken — новый токен доступа, выданный по токену обновления.
type AccessToken struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Service — сервис учётных данных.
type Service struct {
	store  *storage.Store
	tokens *jwt.Maker
	events events.Publisher
	log    *slog.Logger
	now    func() time.Time
}

// New создаёт Service.
func New(store *storage.Store, tokens *jwt.Maker, pub events.Publisher, log *slog.Logger) *Service {
	return &Service{
		store:  store,
		tokens: tokens,
		events: pub,
		log:    log,
		now:    time.Now,
	}
}

// WithClock подменяет источник времени. Используется в тестах.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Authenticate ищет пользователя по паре (email, роль) и сверяет пароль.
//
// Отсутствующий пользователь и неверный пароль неразличимы: оба дают
// apperr.ErrInvalidCredentials, а сверка хеша выполняется в обоих случаях.
func (s *Service) Authenticate(email, pass string, role models.Role) (*models.User, error) {
	email = normalizeEmail(email)

	var found *models.User
	_ = s.store.View(func(snap *models.Snapshot) error {
		for i := range snap.Users {
			u := snap.Users[i]
			if u.Role == role && strings.EqualFold(u.Email, email) {
				found = &u
				return nil
			}
		}
		return nil
	})

	if found == nil {
		password.CompareDummy(pass)
		return nil, apperr.ErrInvalidCredentials
	}
	if err := password.CompareHash(found.PasswordHash, pass); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, err
	}
	return found, nil
}

// Register проверяет поля, создаёт пользователя и возвращает его запись.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	const op = "services.auth.Register"
	log := s.log.With(slog.String("op", op))

	if req.UserType == "" {
		req.UserType = models.RoleCustomer
	}
	switch req.UserType {
	case models.RoleCustomer, models.RoleBusiness:
	case models.RoleAdmin:
		return nil, apperr.Validation("admin accounts cannot be registered")
	default:
		return nil, apperr.Validation("field userType must be one of [business customer]")
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if req.Password != req.ConfirmPassword {
		return nil, apperr.Validation("passwords do not match")
	}
	if req.UserType == models.RoleBusiness {
		if strings.TrimSpace(req.BusinessName) == "" {
			return nil, apperr.Validation("field businessName is a required field")
		}
		if strings.TrimSpace(req.TaxID) == "" {
			return nil, apperr.Validation("field taxId is a required field")
		}
	}

	hash, err := password.GetHash(req.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		ID:           uuid.NewString(),
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.FullName),
		Role:         req.UserType,
		CreatedAt:    s.now().UTC(),
	}
	if user.Role == models.RoleBusiness {
		user.BusinessName = strings.TrimSpace(req.BusinessName)
		user.TaxID = strings.TrimSpace(req.TaxID)
		user.Status = "pending"
	}

	err = s.store.Update(ctx, func(snap *models.Snapshot) error {
		for _, u := range snap.Users {
			if u.Role == user.Role && strings.EqualFold(u.Email, user.Email) {
				return apperr.ErrDuplicateUser
			}
		}
		snap.Users = append(snap.Users, user)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("user registered", slog.String("user_id", user.ID), slog.String("user_type", string(user.Role)))
	events.Emit(ctx, s.events, log, events.UserRegistered, events.UserRegisteredEvent{
		UserID:     user.ID,
		Email:      user.Email,
		Name:       user.Name,
		Role:       string(user.Role),
		OccurredAt: user.CreatedAt,
	})
	return &user, nil
}

// Lookup возвращает пользователя по идентификатору.
func (s *Service) Lookup(id string) (*models.User, error) {
	var found *models.User
	_ = s.store.View(func(snap *models.Snapshot) error {
		if u, ok := snap.UserByID(id); ok {
			c := *u
			found = &c
		}
		return nil
	})
	if found == nil {
		return nil, apperr.NotFound("user not found")
	}
	return found, nil
}

// Login проверяет учётные данные и выдаёт токены доступа и обновления.
func (s *Service) Login(req LoginRequest) (*Session, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if req.UserType == "" {
		req.UserType = models.RoleCustomer
	}
	if !req.UserType.Valid() {
		return nil, apperr.Validation("field userType must be one of [admin business customer]")
	}

	user, err := s.Authenticate(req.Email, req.Password, req.UserType)
	if err != nil {
		return nil, err
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	session.RefreshToken, err = s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// RegisterAndIssue регистрирует пользователя и выдаёт только токен доступа.
func (s *Service) RegisterAndIssue(ctx context.Context, req RegisterRequest) (*Session, error) {
	user, err := s.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Refresh обменивает действующий токен обновления на новый токен доступа.
// Пользователь должен по-прежнему существовать.
func (s *Service) Refresh(refreshToken string) (*AccessToken, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperr.Validation("field refresh_token is a required field")
	}
	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, apperr.ErrTokenExpired
	case err != nil:
		return nil, apperr.ErrTokenInvalid
	}

	user, err := s.Lookup(claims.UserID)
	if err != nil {
		return nil, apperr.ErrTokenInvalid
	}
	token, expiresAt, err := s.tokens.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &AccessToken{AccessToken: token, ExpiresAt: expiresAt}, nil
}

// Me возвращает профиль вызывающего.
func (s *Service) Me(p *models.Principal) (*models.UserResponse, error) {
	if p == nil {
		return nil, apperr.ErrAuthHeaderMissing
	}
	user, err := s.Lookup(p.UserID)
	if err != nil {
		return nil, err
	}
	resp := user.Response()
	return &resp, nil
}

func (s *Service) issue(user *models.User) (*Session, error) {
	token, expiresAt, err := s.tokens.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        user.Response(),
	}, nil
}
