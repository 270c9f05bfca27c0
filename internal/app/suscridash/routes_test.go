package suscridash

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/suscridash/internal/events"
	"github.com/magabrotheeeer/suscridash/internal/http/middlewarectx"
	"github.com/magabrotheeeer/suscridash/internal/lib/jwt"
	"github.com/magabrotheeeer/suscridash/internal/lib/metrics"
	authservice "github.com/magabrotheeeer/suscridash/internal/services/auth"
	"github.com/magabrotheeeer/suscridash/internal/services/guard"
	plansservice "github.com/magabrotheeeer/suscridash/internal/services/plans"
	settingsservice "github.com/magabrotheeeer/suscridash/internal/services/settings"
	"github.com/magabrotheeeer/suscridash/internal/services/stats"
	subsservice "github.com/magabrotheeeer/suscridash/internal/services/subscriptions"
	usersservice "github.com/magabrotheeeer/suscridash/internal/services/users"
	"github.com/magabrotheeeer/suscridash/internal/storage/storagetest"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newTestServerWith(t, func(*Deps) {})
}

func newTestServerWith(t *testing.T, configure func(*Deps)) *httptest.Server {
	t.Helper()

	log := storagetest.Logger()
	store := storagetest.New(t)
	tokens := jwt.NewMaker("test-secret", time.Hour, 24*time.Hour)
	pub := events.Noop{}

	deps := Deps{
		Logger:        log,
		Guard:         guard.New(tokens),
		Limiter:       middlewarectx.NewRateLimiter(100, 100),
		Metrics:       metrics.New(),
		Auth:          authservice.New(store, tokens, pub, log),
		Users:         usersservice.New(store, log),
		Plans:         plansservice.New(store, pub, log),
		Subscriptions: subsservice.New(store, pub, log),
		Settings:      settingsservice.New(store, log),
		Stats:         stats.New(store, nil, time.Minute, log),
	}
	configure(&deps)

	router := chi.NewRouter()
	RegisterRoutes(router, deps)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

type envelope struct {
	Status string          `json:"status"`
	Error  string          `json:"error"`
	Data   json.RawMessage `json:"data"`
}

func call(t *testing.T, srv *httptest.Server, method, path, token, body string) (int, envelope) {
	t.Helper()

	req, err := http.NewRequest(method, srv.URL+path, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func login(t *testing.T, srv *httptest.Server, email, password, role string) string {
	t.Helper()

	body := `{"email":"` + email + `","password":"` + password + `","userType":"` + role + `"}`
	status, env := call(t, srv, http.MethodPost, "/api/auth/login", "", body)
	require.Equal(t, http.StatusOK, status, env.Error)

	var session struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	require.NotEmpty(t, session.AccessToken)
	return session.AccessToken
}

func TestRoutes_AdminStatsAndRoleChecks(t *testing.T) {
	srv := newTestServer(t)

	adminToken := login(t, srv, "admin@suscridash.cl", "admin123", "admin")
	status, env := call(t, srv, http.MethodGet, "/api/admin/stats", adminToken, "")
	require.Equal(t, http.StatusOK, status)

	var s stats.Stats
	require.NoError(t, json.Unmarshal(env.Data, &s))
	assert.Equal(t, 4, s.TotalBusinesses)
	assert.Equal(t, 3, s.TotalPlans)

	customerToken := login(t, srv, "cliente@ejemplo.cl", "cliente123", "customer")
	status, env = call(t, srv, http.MethodGet, "/api/admin/stats", customerToken, "")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Error", env.Status)

	status, _ = call(t, srv, http.MethodGet, "/api/admin/stats", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, srv, http.MethodGet, "/api/customer/subscription", customerToken, "")
	assert.Equal(t, http.StatusOK, status)
}

func TestRoutes_BusinessPlanCreation(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "empresa@ejemplo.cl", "empresa123", "business")

	status, env := call(t, srv, http.MethodPost, "/api/business/plans", token, `{"nombre":"Plus","precio":-5}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Error", env.Status)

	status, env = call(t, srv, http.MethodPost, "/api/business/plans", token, `{"nombre":"Plus","precio":9900}`)
	require.Equal(t, http.StatusCreated, status, env.Error)

	var plan struct {
		ID       string `json:"id"`
		Status   string `json:"estado"`
		Currency string `json:"moneda"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &plan))
	assert.Equal(t, "activo", plan.Status)
	assert.Equal(t, "CLP", plan.Currency)

	status, _ = call(t, srv, http.MethodPatch, "/api/business/plans/"+plan.ID+"/toggle", token, "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = call(t, srv, http.MethodGet, "/api/business/plans/p3", token, "")
	assert.Equal(t, http.StatusForbidden, status)
}

func TestRoutes_PublicCatalog(t *testing.T) {
	srv := newTestServer(t)

	status, env := call(t, srv, http.MethodGet, "/api/businesses", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), "Mi Empresa SA")

	status, _ = call(t, srv, http.MethodGet, "/api/businesses/2/plans", "garbage", "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = call(t, srv, http.MethodGet, "/api/businesses/3/plans", "", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, env = call(t, srv, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"up"}`, string(env.Data))
}

func loginFrom(t *testing.T, srv *httptest.Server, forwardedFor string) int {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/auth/login",
		bytes.NewBufferString(`{"email":"nadie@ejemplo.cl","password":"x","userType":"customer"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", forwardedFor)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestRoutes_LoginLimiterIgnoresForwardedForByDefault(t *testing.T) {
	srv := newTestServerWith(t, func(d *Deps) {
		d.Limiter = middlewarectx.NewRateLimiter(0.001, 1)
	})

	assert.Equal(t, http.StatusUnauthorized, loginFrom(t, srv, "203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, loginFrom(t, srv, "203.0.113.2"))
}

func TestRoutes_LoginLimiterUsesForwardedForBehindProxy(t *testing.T) {
	srv := newTestServerWith(t, func(d *Deps) {
		d.Limiter = middlewarectx.NewRateLimiter(0.001, 1)
		d.TrustProxy = true
	})

	assert.Equal(t, http.StatusUnauthorized, loginFrom(t, srv, "203.0.113.1"))
	assert.Equal(t, http.StatusUnauthorized, loginFrom(t, srv, "203.0.113.2"))
	assert.Equal(t, http.StatusTooManyRequests, loginFrom(t, srv, "203.0.113.1"))
}
