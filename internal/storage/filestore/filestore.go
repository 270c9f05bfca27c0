// Package filestore хранит снимок в JSON-файле на диске.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/magabrotheeeer/suscridash/internal/models"
	"github.com/magabrotheeeer/suscridash/internal/storage"
)

// Storage — файловый носитель снимка.
type Storage struct {
	path string
}

// New создаёт носитель, работающий с файлом path. Каталог создаётся при необходимости.
func New(path string) (*Storage, error) {
	const op = "storage.filestore.New"
	if path == "" {
		return nil, fmt.Errorf("%s: empty path", op)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Storage{path: path}, nil
}

// Load читает и декодирует файл. Отсутствующий или пустой файл означает storage.ErrNoSnapshot.
func (s *Storage) Load(_ context.Context) (*models.Snapshot, error) {
	const op = "storage.filestore.Load"

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, storage.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(data) == 0 {
		return nil, storage.ErrNoSnapshot
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("%s: decode %s: %w", op, s.path, err)
	}
	return &snapshot, nil
}

// Save пишет снимок во временный файл рядом с основным и переименовывает его,
// так что на диске всегда лежит либо старая, либо новая версия целиком.
func (s *Storage) Save(ctx context.Context, snapshot *models.Snapshot) error {
	const op = "storage.filestore.Save"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close ничего не делает: файл открывается только на время чтения или записи.
func (s *Storage) Close() error { return nil }
