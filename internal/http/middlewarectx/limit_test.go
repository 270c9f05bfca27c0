package middlewarectx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_SweepsIdleClientsPeriodically(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	now := start
	l := NewRateLimiter(10, 10)
	l.now = func() time.Time { return now }

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		assert.True(t, l.Allow(ip))
	}
	assert.Equal(t, 3, l.Len())

	// до истечения интервала простаивающие клиенты не удаляются
	now = start.Add(idleLimiterTTL / 2)
	assert.True(t, l.Allow("10.0.0.1"))
	assert.Equal(t, 3, l.Len())

	now = start.Add(idleLimiterTTL + time.Minute)
	assert.True(t, l.Allow("10.0.0.4"))
	assert.Equal(t, 2, l.Len(), "only 10.0.0.1 and 10.0.0.4 remain")
	assert.Equal(t, now, l.lastSweep)
}
