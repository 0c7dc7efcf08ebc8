package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testLimiter(max int, window time.Duration) (*Limiter, *time.Time) {
	l := NewLimiter(max, window)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &now
	l.now = func() time.Time { return *clock }
	return l, clock
}

func TestLimiter_CheckLimit(t *testing.T) {
	l, _ := testLimiter(3, time.Hour)

	s := l.CheckLimit("user-1")
	require.False(t, s.Limited)
	require.Equal(t, 3, s.Remaining)
	require.True(t, s.ResetAt.IsZero())

	for i := 0; i < 3; i++ {
		s = l.CheckLimit("user-1")
		require.False(t, s.Limited, "creation %d should be allowed", i+1)
		l.RecordCreation("user-1")
	}

	s = l.CheckLimit("user-1")
	require.True(t, s.Limited)
	require.Equal(t, 0, s.Remaining)
	require.Equal(t, time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC), s.ResetAt)

	// Other users are unaffected.
	s = l.CheckLimit("user-2")
	require.False(t, s.Limited)
	require.Equal(t, 3, s.Remaining)
}

func TestLimiter_WindowSlides(t *testing.T) {
	l, clock := testLimiter(2, time.Hour)

	l.RecordCreation("user-1")

	*clock = clock.Add(30 * time.Minute)
	l.RecordCreation("user-1")

	s := l.CheckLimit("user-1")
	require.True(t, s.Limited)

	// The first creation expires; one slot frees up.
	*clock = clock.Add(31 * time.Minute)
	s = l.CheckLimit("user-1")
	require.False(t, s.Limited)
	require.Equal(t, 1, s.Remaining)

	// Both expired.
	*clock = clock.Add(time.Hour)
	s = l.CheckLimit("user-1")
	require.False(t, s.Limited)
	require.Equal(t, 2, s.Remaining)
	require.True(t, s.ResetAt.IsZero())
}
