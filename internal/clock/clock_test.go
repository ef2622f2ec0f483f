package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayBounds(t *testing.T) {
	at := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

	start, end := DayBounds(at)

	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 3, 14, 23, 59, 59, 999999999, time.UTC), end)
}

func TestFixed(t *testing.T) {
	at := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, at, Fixed(at).Now())
}
