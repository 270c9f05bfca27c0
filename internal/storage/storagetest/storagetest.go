// Package storagetest собирает хранилище с демонстрационными данными для тестов.
package storagetest

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/suscridash/internal/storage"
)

// Logger возвращает логгер, который ничего не выводит.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// New возвращает хранилище в памяти, заполненное storage.Seed.
func New(t testing.TB) *storage.Store {
	t.Helper()
	store, err := storage.Load(context.Background(), storage.NewMemoryBackend(), Logger(), storage.Seed)
	require.NoError(t, err)
	return store
}
