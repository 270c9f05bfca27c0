package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/suscridash/internal/lib/sl"
	"github.com/magabrotheeeer/suscridash/internal/models"
)

// SeedFunc строит начальный набор данных для пустого носителя.
type SeedFunc func(now time.Time) (*models.Snapshot, error)

// Store — общее хранилище записей.
//
// Писатели сериализуются мьютексом writeMu: каждая мутация работает с копией снимка,
// сбрасывает её в Backend и только после успешного сброса публикует копию читателям.
// Опубликованный снимок больше не изменяется, поэтому читатели никогда не видят
// наполовину записанную запись и не ждут окончания сброса.
type Store struct {
	writeMu sync.Mutex
	mu      sync.RWMutex // защищает data
	data    *models.Snapshot

	backend Backend
	log     *slog.Logger

	hooks   []func()
	observe func(elapsed time.Duration, err error)
}

// Load загружает снимок из backend. Если снимка нет, строит его через seed
// и сразу сохраняет.
func Load(ctx context.Context, backend Backend, log *slog.Logger, seed SeedFunc) (*Store, error) {
	const op = "storage.Load"

	s := &Store{backend: backend, log: log}

	snapshot, err := backend.Load(ctx)
	switch {
	case errors.Is(err, ErrNoSnapshot):
		log.Info("snapshot not found, seeding store")
		snapshot, err = seed(time.Now().UTC())
		if err != nil {
			return nil, fmt.Errorf("%s: seed: %w", op, err)
		}
		snapshot.Normalize()
		if err := s.save(ctx, snapshot); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	snapshot.Normalize()
	s.data = snapshot

	log.Info("store loaded",
		slog.Int("users", len(snapshot.Users)),
		slog.Int("plans", len(snapshot.Plans)),
		slog.Int("subscriptions", len(snapshot.Subscriptions)),
	)
	return s, nil
}

// OnCommit регистрирует функцию, вызываемую после каждой успешной мутации.
// Регистрировать обработчики нужно до начала обслуживания запросов.
func (s *Store) OnCommit(fn func()) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// ObserveFlush задаёт наблюдателя за длительностью и результатом каждого сброса.
func (s *Store) ObserveFlush(fn func(elapsed time.Duration, err error)) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.observe = fn
}

// View передаёт fn согласованный снимок для чтения.
// fn не должна изменять снимок и сохранять ссылки на его срезы после возврата.
func (s *Store) View(fn func(snapshot *models.Snapshot) error) error {
	s.mu.RLock()
	snapshot := s.data
	s.mu.RUnlock()
	return fn(snapshot)
}

// Update выполняет мутацию как критическую секцию: копирует текущий снимок,
// применяет к копии fn, сбрасывает копию в Backend и публикует её.
//
// Если fn вернула ошибку или сброс не удался, опубликованный снимок не меняется,
// а вызывающий получает ошибку.
func (s *Store) Update(ctx context.Context, fn func(snapshot *models.Snapshot) error) error {
	const op = "storage.Update"

	s.writeMu.Lock()

	s.mu.RLock()
	draft := s.data.Clone()
	s.mu.RUnlock()

	if err := fn(draft); err != nil {
		s.writeMu.Unlock()
		return err
	}
	draft.Normalize()

	if err := s.save(ctx, draft); err != nil {
		s.writeMu.Unlock()
		s.log.Error("mutation rolled back", sl.Op(op), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	s.data = draft
	s.mu.Unlock()

	hooks := s.hooks
	s.writeMu.Unlock()

	for _, hook := range hooks {
		hook()
	}
	return nil
}

// Flush сбрасывает текущий опубликованный снимок в Backend.
func (s *Store) Flush(ctx context.Context) error {
	const op = "storage.Flush"
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	snapshot := s.data
	s.mu.RUnlock()

	if err := s.save(ctx, snapshot); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает Backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) save(ctx context.Context, snapshot *models.Snapshot) error {
	start := time.Now()
	err := s.backend.Save(ctx, snapshot)
	if s.observe != nil {
		s.observe(time.Since(start), err)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFlush, err)
	}
	return nil
}
