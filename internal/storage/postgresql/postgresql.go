// Package postgresql хранит снимок одной строкой JSONB в PostgreSQL.
package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // регистрирует драйвер "pgx"

	"github.com/magabrotheeeer/suscridash/internal/migrations"
	"github.com/magabrotheeeer/suscridash/internal/models"
	"github.com/magabrotheeeer/suscridash/internal/storage"
)

const snapshotID = 1

// Storage — носитель снимка в PostgreSQL.
type Storage struct {
	db *sql.DB
}

// New подключается к базе, проверяет соединение и применяет миграции из migrationsPath.
func New(ctx context.Context, connString, migrationsPath string) (*Storage, error) {
	const op = "storage.postgresql.New"

	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := migrations.Run(db, migrationsPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Storage{db: db}, nil
}

// Load читает документ снимка.
func (s *Storage) Load(ctx context.Context) (*models.Snapshot, error) {
	const op = "storage.postgresql.Load"

	var doc []byte
	err := s.db.QueryRowContext(ctx, `SELECT document FROM snapshots WHERE id = $1`, snapshotID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(doc, &snapshot); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &snapshot, nil
}

// Save перезаписывает документ снимка одной командой.
func (s *Storage) Save(ctx context.Context, snapshot *models.Snapshot) error {
	const op = "storage.postgresql.Save"

	doc, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, document, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`,
		snapshotID, doc,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.db.Close()
}
