package events

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type failingPublisher struct{ err error }

func (f failingPublisher) Publish(context.Context, string, any) error { return f.err }

func TestObserved(t *testing.T) {
	var keys []string
	var errs []error
	observe := func(routingKey string, err error) {
		keys = append(keys, routingKey)
		errs = append(errs, err)
	}

	ok := Observed(Noop{}, observe)
	assert.NoError(t, ok.Publish(context.Background(), PlanDeleted, PlanDeletedEvent{PlanID: "p1"}))

	boom := errors.New("channel closed")
	failing := Observed(failingPublisher{err: boom}, observe)
	assert.ErrorIs(t, failing.Publish(context.Background(), UserRegistered, nil), boom)

	assert.Equal(t, []string{PlanDeleted, UserRegistered}, keys)
	assert.Equal(t, []error{nil, boom}, errs)
}

func TestEmit_LogsPublishError(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	Emit(context.Background(), failingPublisher{err: errors.New("channel closed")}, log, SubscriptionCreated, nil)

	assert.Contains(t, buf.String(), "failed to publish event")
	assert.Contains(t, buf.String(), "routing_key=subscription.created")
}
