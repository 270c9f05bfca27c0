// Package stats считает сводную статистику для панели администратора.
//
// Результат кэшируется в redis, если кэш подключён, и сбрасывается после каждой
// успешной записи в хранилище.
package stats

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/suscridash/internal/lib/sl"
	"github.com/magabrotheeeer/suscridash/internal/models"
	"github.com/magabrotheeeer/suscridash/internal/services/guard"
	"github.com/magabrotheeeer/suscridash/internal/storage"
)

// CacheKey — ключ сводки в кэше.
const CacheKey = "suscridash:admin:stats"

// Cacher — хранилище вычисленной сводки.
type Cacher interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Stats — сводка по системе.
type Stats struct {
	TotalBusinesses     int     `json:"total_businesses"`
	ActiveBusinesses    int     `json:"active_businesses"`
	TotalCustomers      int     `json:"total_customers"`
	TotalSubscriptions  int     `json:"total_subscriptions"`
	ActiveSubscriptions int     `json:"active_subscriptions"`
	MonthlyRevenue      float64 `json:"monthly_revenue"`
	TotalPlans          int     `json:"total_plans"`
}

// Compute считает сводку по снимку. Выручка — сумма платежей активных подписок.
func Compute(snap *models.Snapshot) Stats {
	var st Stats
	for _, u := range snap.Users {
		switch u.Role {
		case models.RoleBusiness:
			st.TotalBusinesses++
			if u.Status == "active" {
				st.ActiveBusinesses++
			}
		case models.RoleCustomer:
			st.TotalCustomers++
		}
	}
	for _, sub := range snap.Subscriptions {
		st.TotalSubscriptions++
		if sub.Status == models.StatusActive {
			st.ActiveSubscriptions++
			st.MonthlyRevenue += sub.Amount
		}
	}
	st.TotalPlans = len(snap.Plans)
	return st
}

// Service отдаёт сводку администратору.
type Service struct {
	store *storage.Store
	cache Cacher
	ttl   time.Duration
	log   *slog.Logger
}

// New создаёт Service. cache может быть nil, тогда сводка считается на каждый запрос.
func New(store *storage.Store, cache Cacher, ttl time.Duration, log *slog.Logger) *Service {
	s := &Service{store: store, cache: cache, ttl: ttl, log: log}
	if cache != nil {
		store.OnCommit(s.invalidate)
	}
	return s
}

// Get возвращает сводку.
func (s *Service) Get(ctx context.Context, p *models.Principal) (*Stats, error) {
	const op = "services.stats.Get"
	log := s.log.With(slog.String("op", op))

	if err := guard.Require(p, models.RoleAdmin); err != nil {
		return nil, err
	}

	if s.cache != nil {
		var cached Stats
		found, err := s.cache.Get(ctx, CacheKey, &cached)
		if err != nil {
			log.Warn("stats cache unavailable", sl.Err(err))
		}
		if found {
			return &cached, nil
		}
	}

	var st Stats
	_ = s.store.View(func(snap *models.Snapshot) error {
		st = Compute(snap)
		return nil
	})

	if s.cache != nil {
		if err := s.cache.Set(ctx, CacheKey, st, s.ttl); err != nil {
			log.Warn("failed to cache stats", sl.Err(err))
		}
	}
	return &st, nil
}

func (s *Service) invalidate() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.cache.Invalidate(ctx, CacheKey); err != nil {
		s.log.Warn("failed to invalidate stats cache", slog.String("op", "services.stats.invalidate"), sl.Err(err))
	}
}
