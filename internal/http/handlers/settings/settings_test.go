package settings

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/suscridash/internal/http/middlewarectx"
	"github.com/magabrotheeeer/suscridash/internal/lib/apperr"
	"github.com/magabrotheeeer/suscridash/internal/models"
	settingsservice "github.com/magabrotheeeer/suscridash/internal/services/settings"
	"github.com/magabrotheeeer/suscridash/internal/services/stats"
)

type MockSettings struct {
	mock.Mock
}

func (m *MockSettings) Get(ctx context.Context, p *models.Principal) (*models.Settings, error) {
	args := m.Called(ctx, p)
	v, _ := args.Get(0).(*models.Settings)
	return v, args.Error(1)
}

func (m *MockSettings) Update(ctx context.Context, p *models.Principal, req settingsservice.UpdateRequest) (*models.Settings, error) {
	args := m.Called(ctx, p, req)
	v, _ := args.Get(0).(*models.Settings)
	return v, args.Error(1)
}

type MockStats struct {
	mock.Mock
}

func (m *MockStats) Get(ctx context.Context, p *models.Principal) (*stats.Stats, error) {
	args := m.Called(ctx, p)
	v, _ := args.Get(0).(*stats.Stats)
	return v, args.Error(1)
}

var admin = &models.Principal{UserID: "1", Role: models.RoleAdmin}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newRequest(method, url, body string) *http.Request {
	req := httptest.NewRequest(method, url, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "req-id")
	return req.WithContext(middlewarectx.WithPrincipal(ctx, admin))
}

func TestGet(t *testing.T) {
	settingsSvc := new(MockSettings)
	settingsSvc.On("Get", mock.Anything, admin).Return(&models.Settings{SystemName: "SuscriDash", Currency: "CLP", SessionTimeout: 30}, nil).Once()
	h := New(newNoopLogger(), settingsSvc, new(MockStats))

	w := httptest.NewRecorder()
	h.Get(w, newRequest(http.MethodGet, "/api/admin/settings", ""))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"system_name":"SuscriDash"`)
	settingsSvc.AssertExpectations(t)
}

func TestUpdate(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockSettings)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "частичное изменение",
			body: `{"currency":"usd"}`,
			setupMock: func(m *MockSettings) {
				m.On("Update", mock.Anything, admin, mock.MatchedBy(func(req settingsservice.UpdateRequest) bool {
					return req.Currency != nil && *req.Currency == "usd" && req.SystemName == nil
				})).Return(&models.Settings{SystemName: "SuscriDash", Currency: "USD"}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"currency":"USD"`,
		},
		{
			name: "нулевой таймаут",
			body: `{"session_timeout":0}`,
			setupMock: func(m *MockSettings) {
				m.On("Update", mock.Anything, admin, mock.Anything).
					Return(nil, apperr.Validation("field session_timeout must be greater than 0")).Once()
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `session_timeout`,
		},
		{
			name:           "некорректный JSON",
			body:           `{"currency":`,
			setupMock:      func(*MockSettings) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `failed to decode request`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settingsSvc := new(MockSettings)
			tt.setupMock(settingsSvc)
			h := New(newNoopLogger(), settingsSvc, new(MockStats))

			w := httptest.NewRecorder()
			h.Update(w, newRequest(http.MethodPut, "/api/admin/settings", tt.body))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			settingsSvc.AssertExpectations(t)
		})
	}
}

func TestStats(t *testing.T) {
	statsSvc := new(MockStats)
	statsSvc.On("Get", mock.Anything, admin).Return(&stats.Stats{TotalBusinesses: 4, MonthlyRevenue: 39900}, nil).Once()
	statsSvc.On("Get", mock.Anything, admin).Return(nil, errors.New("boom")).Once()
	h := New(newNoopLogger(), new(MockSettings), statsSvc)

	w := httptest.NewRecorder()
	h.Stats(w, newRequest(http.MethodGet, "/api/admin/stats", ""))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"monthly_revenue":39900`)

	w = httptest.NewRecorder()
	h.Stats(w, newRequest(http.MethodGet, "/api/admin/stats", ""))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"status":"Error","error":"internal error"}`, w.Body.String())

	statsSvc.AssertExpectations(t)
}
