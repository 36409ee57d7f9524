package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsSentinel(t *testing.T) {
	err := fmt.Errorf("book session: %w", Wrap(ErrValidation, "skill must have at least %d characters", 2))

	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, ErrValidation, Kind(err))
	assert.True(t, IsDomain(err))
	assert.Equal(t, "skill must have at least 2 characters", Message(err))
}

func TestMessageWithoutDetail(t *testing.T) {
	err := fmt.Errorf("rate session: %w", ErrNotFound)
	assert.Equal(t, "not found", Message(err))
}

func TestMessageKeepsColonsInDetail(t *testing.T) {
	err := Wrap(ErrConflict, "username: taken")
	assert.Equal(t, "username: taken", Message(err))
}

func TestOperationalErrorsAreHidden(t *testing.T) {
	err := fmt.Errorf("book session: %w", errors.New("pq: connection refused"))

	assert.False(t, IsDomain(err))
	assert.Nil(t, Kind(err))
	assert.Equal(t, "internal error", Message(err))
	assert.Equal(t, "", Message(nil))
}
