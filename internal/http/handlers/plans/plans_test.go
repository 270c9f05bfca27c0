package plans

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/suscridash/internal/http/middlewarectx"
	"github.com/magabrotheeeer/suscridash/internal/lib/apperr"
	"github.com/magabrotheeeer/suscridash/internal/models"
	plansservice "github.com/magabrotheeeer/suscridash/internal/services/plans"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) List(p *models.Principal) ([]models.Plan, error) {
	args := m.Called(p)
	v, _ := args.Get(0).([]models.Plan)
	return v, args.Error(1)
}

func (m *MockService) Get(p *models.Principal, id string) (*models.Plan, error) {
	args := m.Called(p, id)
	v, _ := args.Get(0).(*models.Plan)
	return v, args.Error(1)
}

func (m *MockService) Create(ctx context.Context, p *models.Principal, req plansservice.CreateRequest) (*models.Plan, error) {
	args := m.Called(ctx, p, req)
	v, _ := args.Get(0).(*models.Plan)
	return v, args.Error(1)
}

func (m *MockService) Update(ctx context.Context, p *models.Principal, id string, req plansservice.UpdateRequest) (*models.Plan, error) {
	args := m.Called(ctx, p, id, req)
	v, _ := args.Get(0).(*models.Plan)
	return v, args.Error(1)
}

func (m *MockService) Toggle(ctx context.Context, p *models.Principal, id string) (*models.Plan, error) {
	args := m.Called(ctx, p, id)
	v, _ := args.Get(0).(*models.Plan)
	return v, args.Error(1)
}

func (m *MockService) Delete(ctx context.Context, p *models.Principal, id string) error {
	args := m.Called(ctx, p, id)
	return args.Error(0)
}

func (m *MockService) PublicBusinesses(q string) []plansservice.Business {
	args := m.Called(q)
	return args.Get(0).([]plansservice.Business)
}

func (m *MockService) PublicPlans(businessID string) ([]models.Plan, error) {
	args := m.Called(businessID)
	v, _ := args.Get(0).([]models.Plan)
	return v, args.Error(1)
}

var owner = &models.Principal{UserID: "2", Role: models.RoleBusiness}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newRequest(method, url, id, body string, p *models.Principal) *http.Request {
	req := httptest.NewRequest(method, url, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "req-id")
	if p != nil {
		ctx = middlewarectx.WithPrincipal(ctx, p)
	}
	rctx := chi.NewRouteContext()
	if id != "" {
		rctx.URLParams.Add("id", id)
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	return req.WithContext(ctx)
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "создан",
			body: `{"nombre":"Plus","precio":9900}`,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, owner, plansservice.CreateRequest{Name: "Plus", Price: 9900}).
					Return(&models.Plan{ID: "p9", Name: "Plus", Price: 9900, Status: models.PlanActive}, nil).Once()
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"estado":"activo"`,
		},
		{
			name: "отрицательная цена",
			body: `{"nombre":"Plus","precio":-5}`,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, owner, mock.Anything).
					Return(nil, apperr.Validation("field precio must be greater than 0")).Once()
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"field precio must be greater than 0"}`,
		},
		{
			name:           "некорректный JSON",
			body:           `precio`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `failed to decode request`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)
			h := New(newNoopLogger(), svc)

			w := httptest.NewRecorder()
			h.Create(w, newRequest(http.MethodPost, "/api/business/plans", "", tt.body, owner))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestOwnershipErrors(t *testing.T) {
	svc := new(MockService)
	svc.On("Get", owner, "p3").Return(nil, apperr.Forbidden("plan belongs to another business")).Once()
	svc.On("Toggle", mock.Anything, owner, "nope").Return(nil, apperr.NotFound("plan not found")).Once()
	svc.On("Delete", mock.Anything, owner, "p1").Return(nil).Once()
	h := New(newNoopLogger(), svc)

	w := httptest.NewRecorder()
	h.Get(w, newRequest(http.MethodGet, "/api/business/plans/p3", "p3", "", owner))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	h.Toggle(w, newRequest(http.MethodPatch, "/api/business/plans/nope/toggle", "nope", "", owner))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	h.Delete(w, newRequest(http.MethodDelete, "/api/business/plans/p1", "p1", "", owner))
	assert.Equal(t, http.StatusOK, w.Code)

	svc.AssertExpectations(t)
}

func TestUpdate_MergesPointerFields(t *testing.T) {
	svc := new(MockService)
	svc.On("Update", mock.Anything, owner, "p1", mock.MatchedBy(func(req plansservice.UpdateRequest) bool {
		return req.Price != nil && *req.Price == 24900 && req.Name == nil
	})).Return(&models.Plan{ID: "p1", Name: "Básico", Price: 24900}, nil).Once()
	h := New(newNoopLogger(), svc)

	w := httptest.NewRecorder()
	h.Update(w, newRequest(http.MethodPut, "/api/business/plans/p1", "p1", `{"precio":24900}`, owner))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"precio":24900`)
	svc.AssertExpectations(t)
}

func TestPublic(t *testing.T) {
	svc := new(MockService)
	svc.On("PublicBusinesses", "tech").Return([]plansservice.Business{{ID: "4", BusinessName: "Tech Solutions SA", ActivePlans: 1}}).Once()
	svc.On("PublicPlans", "3").Return(nil, apperr.NotFound("business not found")).Once()
	svc.On("List", owner).Return([]models.Plan{}, nil).Once()
	h := New(newNoopLogger(), svc)

	w := httptest.NewRecorder()
	h.PublicBusinesses(w, newRequest(http.MethodGet, "/api/businesses?q=tech", "", "", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"active_plans":1`)

	w = httptest.NewRecorder()
	h.PublicPlans(w, newRequest(http.MethodGet, "/api/businesses/3/plans", "3", "", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	h.List(w, newRequest(http.MethodGet, "/api/business/plans", "", "", owner))
	assert.JSONEq(t, `{"status":"OK","data":[]}`, w.Body.String())

	svc.AssertExpectations(t)
}
