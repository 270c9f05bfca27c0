package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func startPostgres(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("suscridash"),
		postgres.WithUsername("suscridash"),
		postgres.WithPassword("suscridash"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func migrationsDir(t *testing.T) string {
	t.Helper()
	root, err := filepath.Abs("../..")
	require.NoError(t, err)
	return filepath.Join(root, "migrations")
}

// Миграции создают таблицу снимков, в которую можно писать один JSONB-документ,
// и повторный запуск ничего не ломает.
func TestRun_SnapshotsTable(t *testing.T) {
	db := startPostgres(t)
	dir := migrationsDir(t)

	require.NoError(t, Run(db, dir))
	require.NoError(t, Run(db, dir))

	_, err := db.Exec(`INSERT INTO snapshots (id, document) VALUES (1, '{"users":[]}'::jsonb)`)
	require.NoError(t, err)

	var users string
	var updatedAt time.Time
	err = db.QueryRow(`SELECT document->>'users', updated_at FROM snapshots WHERE id = 1`).Scan(&users, &updatedAt)
	require.NoError(t, err)
	assert.Equal(t, "[]", users)
	assert.False(t, updatedAt.IsZero())

	_, err = db.Exec(`INSERT INTO snapshots (id, document) VALUES (1, '{}'::jsonb)`)
	assert.Error(t, err, "single snapshot row is keyed by id")
}

func TestRun_MissingDirectory(t *testing.T) {
	db := startPostgres(t)

	err := Run(db, filepath.Join(t.TempDir(), "absent"))
	assert.ErrorContains(t, err, "migrations.Run")
}
