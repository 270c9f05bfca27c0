package auth

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/suscridash/internal/http/middlewarectx"
	"github.com/magabrotheeeer/suscridash/internal/lib/apperr"
	"github.com/magabrotheeeer/suscridash/internal/models"
	authservice "github.com/magabrotheeeer/suscridash/internal/services/auth"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Login(req authservice.LoginRequest) (*authservice.Session, error) {
	args := m.Called(req)
	s, _ := args.Get(0).(*authservice.Session)
	return s, args.Error(1)
}

func (m *MockService) RegisterAndIssue(ctx context.Context, req authservice.RegisterRequest) (*authservice.Session, error) {
	args := m.Called(ctx, req)
	s, _ := args.Get(0).(*authservice.Session)
	return s, args.Error(1)
}

func (m *MockService) Refresh(refreshToken string) (*authservice.AccessToken, error) {
	args := m.Called(refreshToken)
	t, _ := args.Get(0).(*authservice.AccessToken)
	return t, args.Error(1)
}

func (m *MockService) Me(p *models.Principal) (*models.UserResponse, error) {
	args := m.Called(p)
	u, _ := args.Get(0).(*models.UserResponse)
	return u, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newRequest(method, url, body string) *http.Request {
	req := httptest.NewRequest(method, url, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-id"))
}

var session = &authservice.Session{
	AccessToken:  "access",
	RefreshToken: "refresh",
	ExpiresAt:    time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC),
	User:         models.UserResponse{ID: "1", Email: "admin@suscridash.cl", Role: models.RoleAdmin},
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешный вход",
			body: `{"email":"admin@suscridash.cl","password":"admin123","userType":"admin"}`,
			setupMock: func(m *MockService) {
				m.On("Login", authservice.LoginRequest{Email: "admin@suscridash.cl", Password: "admin123", UserType: models.RoleAdmin}).
					Return(session, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"access_token":"access"`,
		},
		{
			name:           "некорректный JSON",
			body:           `not a json`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"failed to decode request"}`,
		},
		{
			name: "неверные учетные данные",
			body: `{"email":"admin@suscridash.cl","password":"wrong","userType":"admin"}`,
			setupMock: func(m *MockService) {
				m.On("Login", mock.Anything).Return(nil, apperr.ErrInvalidCredentials).Once()
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"invalid credentials"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)
			h := New(newNoopLogger(), svc)

			w := httptest.NewRecorder()
			h.Login(w, newRequest(http.MethodPost, "/api/auth/login", tt.body))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "создан",
			setupMock: func(m *MockService) {
				m.On("RegisterAndIssue", mock.Anything, mock.AnythingOfType("auth.RegisterRequest")).Return(session, nil).Once()
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"status":"OK"`,
		},
		{
			name: "дубликат",
			setupMock: func(m *MockService) {
				m.On("RegisterAndIssue", mock.Anything, mock.Anything).Return(nil, apperr.ErrDuplicateUser).Once()
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"user already exists"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)
			h := New(newNoopLogger(), svc)

			w := httptest.NewRecorder()
			body := `{"email":"nuevo@cliente.cl","password":"x","confirmPassword":"x","fullName":"Nuevo"}`
			h.Register(w, newRequest(http.MethodPost, "/api/auth/register", body))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestRefresh(t *testing.T) {
	svc := new(MockService)
	svc.On("Refresh", "stale").Return(nil, apperr.ErrTokenExpired).Once()
	svc.On("Refresh", "fresh").Return(&authservice.AccessToken{AccessToken: "new"}, nil).Once()
	h := New(newNoopLogger(), svc)

	w := httptest.NewRecorder()
	h.Refresh(w, newRequest(http.MethodPost, "/api/auth/refresh", `{"refresh_token":"stale"}`))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token expired")

	w = httptest.NewRecorder()
	h.Refresh(w, newRequest(http.MethodPost, "/api/auth/refresh", `{"refresh_token":"fresh"}`))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"access_token":"new"`)
	svc.AssertExpectations(t)
}

func TestMe(t *testing.T) {
	p := &models.Principal{UserID: "3", Role: models.RoleCustomer}
	svc := new(MockService)
	svc.On("Me", p).Return(&models.UserResponse{ID: "3", Email: "cliente@ejemplo.cl"}, nil).Once()
	h := New(newNoopLogger(), svc)

	req := newRequest(http.MethodGet, "/api/auth/me", "")
	req = req.WithContext(middlewarectx.WithPrincipal(req.Context(), p))
	w := httptest.NewRecorder()
	h.Me(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"cliente@ejemplo.cl"`)
	svc.AssertExpectations(t)
}
