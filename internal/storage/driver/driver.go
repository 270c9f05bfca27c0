// Package driver выбирает носитель снимка по настройкам.
package driver

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/suscridash/internal/config"
	"github.com/magabrotheeeer/suscridash/internal/storage"
	"github.com/magabrotheeeer/suscridash/internal/storage/filestore"
	"github.com/magabrotheeeer/suscridash/internal/storage/postgresql"
)

// Open открывает Backend, заданный cfg.Driver.
func Open(ctx context.Context, cfg config.Storage) (storage.Backend, error) {
	const op = "storage.driver.Open"

	switch cfg.Driver {
	case config.StorageFile:
		b, err := filestore.New(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return b, nil
	case config.StoragePostgres:
		b, err := postgresql.New(ctx, cfg.ConnectionString, cfg.MigrationsPath)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return b, nil
	case config.StorageMemory:
		return storage.NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("%s: unknown driver %q", op, cfg.Driver)
	}
}
