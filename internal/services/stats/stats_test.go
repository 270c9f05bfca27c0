package stats

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/suscridash/internal/cache"
	"github.com/magabrotheeeer/suscridash/internal/config"
	"github.com/magabrotheeeer/suscridash/internal/lib/apperr"
	"github.com/magabrotheeeer/suscridash/internal/models"
	"github.com/magabrotheeeer/suscridash/internal/storage/storagetest"
)

var admin = &models.Principal{UserID: "1", Role: models.RoleAdmin}

var seeded = Stats{
	TotalBusinesses:     4,
	ActiveBusinesses:    3,
	TotalCustomers:      1,
	TotalSubscriptions:  1,
	ActiveSubscriptions: 1,
	MonthlyRevenue:      39900,
	TotalPlans:          3,
}

func TestCompute(t *testing.T) {
	snap := &models.Snapshot{
		Users: []models.User{
			{ID: "1", Role: models.RoleAdmin},
			{ID: "2", Role: models.RoleBusiness, Status: "active"},
			{ID: "3", Role: models.RoleBusiness, Status: "pending"},
			{ID: "4", Role: models.RoleCustomer},
			{ID: "5", Role: models.RoleCustomer},
		},
		Subscriptions: []models.Subscription{
			{Status: models.StatusActive, Amount: 1000},
			{Status: models.StatusActive, Amount: 2500},
			{Status: models.StatusPending, Amount: 9999},
			{Status: models.StatusCancelled, Amount: 9999},
		},
		Plans: []models.Plan{{ID: "p1"}},
	}

	assert.Equal(t, Stats{
		TotalBusinesses:     2,
		ActiveBusinesses:    1,
		TotalCustomers:      2,
		TotalSubscriptions:  4,
		ActiveSubscriptions: 2,
		MonthlyRevenue:      3500,
		TotalPlans:          1,
	}, Compute(snap))
}

func TestGet_WithoutCache(t *testing.T) {
	s := New(storagetest.New(t), nil, time.Minute, storagetest.Logger())

	got, err := s.Get(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, seeded, *got)

	_, err = s.Get(context.Background(), &models.Principal{UserID: "3", Role: models.RoleCustomer})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestGet_CachedAndInvalidatedOnCommit(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := cache.InitServer(context.Background(), config.Redis{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	store := storagetest.New(t)
	s := New(store, c, time.Minute, storagetest.Logger())
	ctx := context.Background()

	got, err := s.Get(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, seeded, *got)
	assert.True(t, mr.Exists(CacheKey))

	// значение из кэша отдаётся как есть
	require.NoError(t, c.Set(ctx, CacheKey, Stats{TotalPlans: 42}, time.Minute))
	got, err = s.Get(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 42, got.TotalPlans)

	// успешная запись сбрасывает кэш
	require.NoError(t, store.Update(ctx, func(snap *models.Snapshot) error {
		snap.Plans = snap.Plans[:1]
		return nil
	}))
	assert.False(t, mr.Exists(CacheKey))

	got, err = s.Get(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalPlans)
}

func TestGet_CacheDownFallsBack(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	c, err := cache.InitServer(context.Background(), config.Redis{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	mr.Close()

	s := New(storagetest.New(t), c, time.Minute, storagetest.Logger())
	got, err := s.Get(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, seeded, *got)
}
