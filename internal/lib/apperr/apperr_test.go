package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/suscridash/internal/lib/apperr"
)

func TestIs_MatchesByKind(t *testing.T) {
	err := apperr.Validation("precio must be greater than zero")

	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.NotErrorIs(t, err, apperr.ErrNotFound)

	wrapped := fmt.Errorf("plans.Create: %w", err)
	assert.ErrorIs(t, wrapped, apperr.ErrValidation)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(wrapped))
	assert.Equal(t, "precio must be greater than zero", apperr.Message(wrapped))
}

func TestKindOf_PlainErrorIsInternal(t *testing.T) {
	err := errors.New("disk full")

	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Equal(t, "internal error", apperr.Message(err))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "DuplicateUser", apperr.KindDuplicateUser.String())
	assert.Equal(t, "TokenExpired", apperr.KindTokenExpired.String())
	assert.Equal(t, "Internal", apperr.Kind(99).String())
}
