package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from SubscriptionStatus
		to   SubscriptionStatus
		want bool
	}{
		{StatusPending, StatusActive, true},
		{StatusPending, StatusCancelled, true},
		{StatusActive, StatusCancelled, true},
		{StatusActive, StatusActive, true},
		{StatusActive, StatusPending, false},
		{StatusCancelled, StatusActive, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusCancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestSnapshot_CloneIsIndependent(t *testing.T) {
	settings := DefaultSettings(time.Now())
	orig := &Snapshot{
		Users:         []User{{ID: "1", Email: "admin@suscridash.cl", Role: RoleAdmin}},
		Plans:         []Plan{{ID: "p1", Features: []string{"Soporte 24/7"}}},
		Subscriptions: []Subscription{{ID: "s1", Status: StatusActive}},
		Settings:      &settings,
	}

	c := orig.Clone()
	c.Users[0].Email = "changed@suscridash.cl"
	c.Plans[0].Features[0] = "changed"
	c.Subscriptions[0].Status = StatusCancelled
	c.Settings.SystemName = "changed"

	assert.Equal(t, "admin@suscridash.cl", orig.Users[0].Email)
	assert.Equal(t, "Soporte 24/7", orig.Plans[0].Features[0])
	assert.Equal(t, StatusActive, orig.Subscriptions[0].Status)
	assert.Equal(t, "Suscridash", orig.Settings.SystemName)
}

func TestSnapshot_Lookups(t *testing.T) {
	s := &Snapshot{
		Users: []User{{ID: "1"}, {ID: "2"}},
		Plans: []Plan{{ID: "p1"}},
	}
	s.Normalize()

	u, ok := s.UserByID("2")
	assert.True(t, ok)
	u.Name = "edited"
	assert.Equal(t, "edited", s.Users[1].Name)

	_, ok = s.PlanByID("missing")
	assert.False(t, ok)
	_, ok = s.SubscriptionByID("s1")
	assert.False(t, ok)
	assert.NotNil(t, s.Subscriptions)
}

func TestUser_ResponseHidesPassword(t *testing.T) {
	u := User{ID: "2", Email: "empresa@ejemplo.cl", PasswordHash: "$2a$10$secret", Role: RoleBusiness, BusinessName: "Mi Empresa SA"}
	resp := u.Response()
	assert.Equal(t, "Mi Empresa SA", resp.BusinessName)
	assert.Equal(t, "Mi Empresa SA", u.DisplayName())
}
