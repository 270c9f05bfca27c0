package suscridash

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/suscridash/internal/cache"
	"github.com/magabrotheeeer/suscridash/internal/config"
	"github.com/magabrotheeeer/suscridash/internal/events"
	"github.com/magabrotheeeer/suscridash/internal/http/middlewarectx"
	"github.com/magabrotheeeer/suscridash/internal/lib/jwt"
	"github.com/magabrotheeeer/suscridash/internal/lib/metrics"
	"github.com/magabrotheeeer/suscridash/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/suscridash/internal/lib/sl"
	authservice "github.com/magabrotheeeer/suscridash/internal/services/auth"
	"github.com/magabrotheeeer/suscridash/internal/services/guard"
	plansservice "github.com/magabrotheeeer/suscridash/internal/services/plans"
	settingsservice "github.com/magabrotheeeer/suscridash/internal/services/settings"
	"github.com/magabrotheeeer/suscridash/internal/services/stats"
	subsservice "github.com/magabrotheeeer/suscridash/internal/services/subscriptions"
	usersservice "github.com/magabrotheeeer/suscridash/internal/services/users"
	"github.com/magabrotheeeer/suscridash/internal/storage"
	"github.com/magabrotheeeer/suscridash/internal/storage/driver"
)

// App — HTTP-приложение со всеми открытыми ресурсами.
type App struct {
	server *http.Server
	logger *slog.Logger
	store  *storage.Store
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New открывает хранилище, необязательные redis и RabbitMQ и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.suscridash.New"

	a := &App{logger: logger}

	backend, err := driver.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.store, err = storage.Load(ctx, backend, logger, storage.Seed)
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m := metrics.New()
	a.store.ObserveFlush(m.ObserveFlush)

	var pub events.Publisher = events.Noop{}
	if cfg.RabbitMQ.URL != "" {
		a.conn, err = rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
		if err != nil {
			a.closeResources()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.ch, err = rabbitmq.SetupChannel(a.conn, rabbitmq.NotificationQueues())
		if err != nil {
			a.closeResources()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		pub = rabbitmq.NewPublisher(a.ch)
	} else {
		logger.Warn("rabbitmq url is empty, events are not published")
	}
	pub = events.Observed(pub, m.ObservePublish)

	var statsCache stats.Cacher
	if cfg.Redis.Address != "" {
		a.cache, err = cache.InitServer(ctx, cfg.Redis)
		if err != nil {
			a.closeResources()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		statsCache = a.cache
	}

	tokens := jwt.NewMaker(cfg.JWT.SecretKey, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	router := chi.NewRouter()
	RegisterRoutes(router, Deps{
		Logger:        logger,
		Guard:         guard.New(tokens),
		Limiter:       middlewarectx.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		TrustProxy:    cfg.HTTPServer.TrustProxy,
		Metrics:       m,
		Auth:          authservice.New(a.store, tokens, pub, logger),
		Users:         usersservice.New(a.store, logger),
		Plans:         plansservice.New(a.store, pub, logger),
		Subscriptions: subsservice.New(a.store, pub, logger),
		Settings:      settingsservice.New(a.store, logger),
		Stats:         stats.New(a.store, statsCache, cfg.Redis.StatsTTL, logger),
	})

	a.server = &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}
	return a, nil
}

// Run обслуживает запросы до отмены ctx, затем останавливает сервер и закрывает ресурсы.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.closeResources()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.closeResources()
		return err
	}
}

func (a *App) closeResources() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close cache", sl.Err(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Error("failed to close store", sl.Err(err))
		}
	}
}
