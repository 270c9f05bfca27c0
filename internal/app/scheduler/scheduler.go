// Package scheduler собирает процесс планировщика напоминаний о продлении.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/suscridash/internal/config"
	"github.com/magabrotheeeer/suscridash/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/suscridash/internal/lib/sl"
	schedulerservice "github.com/magabrotheeeer/suscridash/internal/services/scheduler"
	"github.com/magabrotheeeer/suscridash/internal/storage"
	"github.com/magabrotheeeer/suscridash/internal/storage/driver"
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservice.Service
	backend          storage.Backend
	conn             *amqp.Connection
	ch               *amqp.Channel
	logger           *slog.Logger
}

// New создает новый экземпляр приложения планировщика.
// Снимок читается напрямую из носителя на каждом проходе.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.scheduler.New"

	if cfg.RabbitMQ.URL == "" {
		return nil, fmt.Errorf("%s: %w", op, errors.New("rabbitmq url is required"))
	}
	if cfg.Storage.Driver == config.StorageMemory {
		return nil, fmt.Errorf("%s: %w", op, errors.New("memory storage is not shared between processes"))
	}

	backend, err := driver.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		closeResources(nil, nil, backend, logger)
		return nil, fmt.Errorf("%s: failed to connect RabbitMQ: %w", op, err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.NotificationQueues())
	if err != nil {
		closeResources(nil, conn, backend, logger)
		return nil, fmt.Errorf("%s: failed to setup RabbitMQ channel: %w", op, err)
	}

	svc := schedulerservice.New(backend, rabbitmq.NewPublisher(ch), cfg.Scheduler.Interval, cfg.Scheduler.LeadTime, logger)

	return &App{
		schedulerService: svc,
		backend:          backend,
		conn:             conn,
		ch:               ch,
		logger:           logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, backend storage.Backend, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if backend != nil {
		if err := backend.Close(); err != nil {
			logger.Error("failed to close storage", sl.Err(err))
		}
	}
}

// Run запускает планировщик и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.schedulerService.Run(ctx)

	a.logger.Info("shutting down scheduler service")
	closeResources(a.ch, a.conn, a.backend, a.logger)
	return nil
}
