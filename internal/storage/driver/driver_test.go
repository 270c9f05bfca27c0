package driver

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/suscridash/internal/config"
	"github.com/magabrotheeeer/suscridash/internal/storage"
	"github.com/magabrotheeeer/suscridash/internal/storage/filestore"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		b, err := Open(ctx, config.Storage{Driver: config.StorageMemory})
		require.NoError(t, err)
		assert.IsType(t, &storage.MemoryBackend{}, b)

		_, err = b.Load(ctx)
		assert.True(t, errors.Is(err, storage.ErrNoSnapshot))
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data", "db.json")
		b, err := Open(ctx, config.Storage{Driver: config.StorageFile, Path: path})
		require.NoError(t, err)
		assert.IsType(t, &filestore.Storage{}, b)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := Open(ctx, config.Storage{Driver: "mongo"})
		assert.ErrorContains(t, err, `unknown driver "mongo"`)
	})
}
