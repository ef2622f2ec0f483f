package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NotFound("service.workorder.Get", "work order", "WO-1"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrDuplicateKey))
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestInvalidTransitionMessage(t *testing.T) {
	err := InvalidTransition("service.workorder.Start", "COMPLETED", "start")

	assert.Equal(t, "service.workorder.Start: cannot start in status COMPLETED", err.Error())
	assert.Equal(t, "COMPLETED", err.From)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("connection refused")))
}
