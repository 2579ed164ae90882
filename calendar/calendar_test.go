package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func msk(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, moscow)
}

func TestCanTradeAt(t *testing.T) {
	t.Parallel()

	c := New()

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"monday midday", msk(2025, time.March, 10, 12, 30), true},
		{"session open edge", msk(2025, time.March, 10, 10, 0), true},
		{"session close edge", msk(2025, time.March, 10, 23, 50), true},
		{"before open", msk(2025, time.March, 10, 9, 59), false},
		{"after close", msk(2025, time.March, 10, 23, 51), false},
		{"day clearing", msk(2025, time.March, 10, 14, 2), false},
		{"evening clearing", msk(2025, time.March, 10, 18, 50), false},
		{"after evening clearing", msk(2025, time.March, 10, 19, 1), true},
		{"saturday", msk(2025, time.March, 8, 12, 0), false},
		{"sunday", msk(2025, time.March, 9, 12, 0), false},
		{"new year holiday", msk(2025, time.January, 2, 12, 0), false},
		{"victory day", msk(2025, time.May, 9, 12, 0), false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, reason := c.CanTradeAt(tt.at)
			assert.Equal(t, tt.want, got, "reason: %s", reason)
			if !tt.want {
				assert.NotEmpty(t, reason)
			}
		})
	}
}

func TestCanTradeAt_ConvertsToMoscow(t *testing.T) {
	t.Parallel()

	c := New()

	// 07:30 UTC is 10:30 MSK, inside the session
	ok, _ := c.CanTradeAt(time.Date(2025, time.March, 10, 7, 30, 0, 0, time.UTC))
	assert.True(t, ok)

	// 06:30 UTC is 09:30 MSK, before the open
	ok, _ = c.CanTradeAt(time.Date(2025, time.March, 10, 6, 30, 0, 0, time.UTC))
	assert.False(t, ok)
}

func TestValidatePositionSize(t *testing.T) {
	t.Parallel()

	c := New()

	ok, _ := c.ValidatePositionSize(1)
	assert.True(t, ok)

	ok, _ = c.ValidatePositionSize(-3)
	assert.True(t, ok)

	// closing is never blocked
	ok, _ = c.ValidatePositionSize(0)
	assert.True(t, ok)
}

func TestStatus(t *testing.T) {
	t.Parallel()

	c := New()

	c.Now = func() time.Time { return msk(2025, time.March, 10, 9, 0) }
	st := c.Status()
	assert.Equal(t, StateBeforeOpen, st.State)
	assert.Equal(t, time.Hour, st.TimeUntilEvent)

	c.Now = func() time.Time { return msk(2025, time.March, 10, 14, 3) }
	st = c.Status()
	assert.Equal(t, StateClearing, st.State)
	assert.Equal(t, 2*time.Minute, st.TimeUntilEvent)

	c.Now = func() time.Time { return msk(2025, time.March, 8, 12, 0) }
	st = c.Status()
	assert.Equal(t, StateClosedDay, st.State)
	assert.False(t, st.CanTrade)
}
