// Package storage реализует общее хранилище записей сервиса: пользователей,
// планов, подписок и системных настроек.
//
// Все данные лежат в одном снимке (models.Snapshot), который загружается целиком
// при старте и целиком сбрасывается в Backend после каждой мутации.
// Мутация считается успешной только после успешного сброса.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/magabrotheeeer/suscridash/internal/models"
)

var (
	// ErrNoSnapshot возвращается Backend.Load, если сохранённого снимка ещё нет.
	ErrNoSnapshot = errors.New("snapshot not found")
	// ErrFlush оборачивает любую ошибку записи снимка.
	ErrFlush = errors.New("failed to flush store")
)

// Backend — долговременный носитель снимка.
type Backend interface {
	// Load читает снимок. Если его нет, возвращает ErrNoSnapshot.
	Load(ctx context.Context) (*models.Snapshot, error)
	// Save атомарно перезаписывает снимок целиком.
	Save(ctx context.Context, snapshot *models.Snapshot) error
	// Close освобождает ресурсы носителя.
	Close() error
}

// MemoryBackend хранит сериализованный снимок в памяти процесса.
type MemoryBackend struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryBackend создаёт пустой MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Load возвращает копию сохранённого снимка.
func (b *MemoryBackend) Load(_ context.Context) (*models.Snapshot, error) {
	const op = "storage.MemoryBackend.Load"
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return nil, ErrNoSnapshot
	}
	var snapshot models.Snapshot
	if err := json.Unmarshal(b.data, &snapshot); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &snapshot, nil
}

// Save сериализует снимок и заменяет сохранённую версию.
func (b *MemoryBackend) Save(_ context.Context, snapshot *models.Snapshot) error {
	const op = "storage.MemoryBackend.Save"
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	b.mu.Lock()
	b.data = data
	b.mu.Unlock()
	return nil
}

// Close ничего не делает.
func (b *MemoryBackend) Close() error { return nil }
