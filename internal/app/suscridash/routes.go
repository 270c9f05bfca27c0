// Package suscridash собирает HTTP-приложение: маршруты, middleware и зависимости.
package suscridash

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	authhandler "github.com/magabrotheeeer/suscridash/internal/http/handlers/auth"
	"github.com/magabrotheeeer/suscridash/internal/http/handlers/health"
	planshandler "github.com/magabrotheeeer/suscridash/internal/http/handlers/plans"
	settingshandler "github.com/magabrotheeeer/suscridash/internal/http/handlers/settings"
	subshandler "github.com/magabrotheeeer/suscridash/internal/http/handlers/subscriptions"
	usershandler "github.com/magabrotheeeer/suscridash/internal/http/handlers/users"
	"github.com/magabrotheeeer/suscridash/internal/http/middlewarectx"
	"github.com/magabrotheeeer/suscridash/internal/lib/metrics"
	"github.com/magabrotheeeer/suscridash/internal/models"
	"github.com/magabrotheeeer/suscridash/internal/services/guard"
)

// Deps — зависимости маршрутов.
type Deps struct {
	Logger        *slog.Logger
	Guard         middlewarectx.Authorizer
	Limiter       *middlewarectx.RateLimiter
	TrustProxy    bool
	Metrics       *metrics.Metrics
	Auth          authhandler.Service
	Users         usershandler.Service
	Plans         planshandler.Service
	Subscriptions subshandler.Service
	Settings      settingshandler.Service
	Stats         settingshandler.StatsService
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, d Deps) {
	log := d.Logger

	// Глобальные middleware
	r.Use(middleware.RequestID)
	if d.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		d.Metrics.Middleware,
	)

	auth := authhandler.New(log, d.Auth)
	users := usershandler.New(log, d.Users)
	plans := planshandler.New(log, d.Plans)
	subs := subshandler.New(log, d.Subscriptions)
	settings := settingshandler.New(log, d.Settings, d.Stats)

	role := func(rl models.Role) func(http.Handler) http.Handler {
		return middlewarectx.Authorize(d.Guard, guard.Role(rl), log)
	}

	r.Route("/api", func(r chi.Router) {
		// Открытые конечные точки
		r.Group(func(r chi.Router) {
			r.Use(d.Limiter.Middleware(log))
			r.Post("/auth/login", auth.Login)
			r.Post("/auth/register", auth.Register)
		})
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.Authorize(d.Guard, guard.Public(), log))
			r.Post("/auth/refresh", auth.Refresh)
			r.Get("/businesses", plans.PublicBusinesses)
			r.Get("/businesses/{id}/plans", plans.PublicPlans)
		})

		r.With(middlewarectx.Authorize(d.Guard, guard.Authenticated(), log)).Get("/auth/me", auth.Me)

		r.Route("/admin", func(r chi.Router) {
			r.Use(role(models.RoleAdmin))
			r.Get("/stats", settings.Stats)
			r.Get("/businesses", users.Businesses)
			r.Get("/businesses/recent", users.RecentBusinesses)
			r.Get("/users", users.List)
			r.Get("/users/{id}", users.Get)
			r.Put("/users/{id}", users.Update)
			r.Delete("/users/{id}", users.Delete)
			r.Get("/subscriptions", subs.List)
			r.Post("/subscriptions", subs.AdminCreate)
			r.Put("/subscriptions/{id}", subs.AdminUpdate)
			r.Delete("/subscriptions/{id}", subs.AdminDelete)
			r.Get("/settings", settings.Get)
			r.Put("/settings", settings.Update)
		})

		r.Route("/business", func(r chi.Router) {
			r.Use(role(models.RoleBusiness))
			r.Get("/plans", plans.List)
			r.Post("/plans", plans.Create)
			r.Get("/plans/{id}", plans.Get)
			r.Put("/plans/{id}", plans.Update)
			r.Delete("/plans/{id}", plans.Delete)
			r.Patch("/plans/{id}/toggle", plans.Toggle)
			r.Get("/subscribers", subs.Subscribers)
			r.Post("/subscriptions", subs.Create)
			r.Put("/subscriptions/{id}/status", subs.ChangeStatus)
		})

		r.With(role(models.RoleCustomer)).Get("/customer/subscription", subs.Current)
	})

	r.Handle("/health", health.New(log))
	r.Handle("/metrics", d.Metrics.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
