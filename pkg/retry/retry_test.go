package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/Jacobbrewer1/warden/pkg/platform"
	"github.com/stretchr/testify/require"
)

func testRunner(t *testing.T) (*Runner, *[]time.Duration) {
	t.Helper()

	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	sleeps := new([]time.Duration)
	r := &Runner{
		l:           l,
		maxAttempts: DefaultMaxAttempts,
		base:        DefaultBase,
		permanent:   platform.IsPermanent,
		sleep: func(d time.Duration) {
			*sleeps = append(*sleeps, d)
		},
	}
	return r, sleeps
}

func TestRunner_Do_SucceedsAfterTransientFailures(t *testing.T) {
	r, sleeps := testRunner(t)

	calls := 0
	err := r.Do(context.Background(), "create_thread", func() error {
		calls++
		if calls < 3 {
			return errors.New("timeout")
		}
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 3, calls)

	// Two failures mean two backoff sleeps, each longer than the last.
	require.Len(t, *sleeps, 2)
	require.Equal(t, DefaultBase, (*sleeps)[0])
	require.Equal(t, 2*DefaultBase, (*sleeps)[1])
}

func TestRunner_Do_PermanentFailsImmediately(t *testing.T) {
	r, sleeps := testRunner(t)

	calls := 0
	err := r.Do(context.Background(), "get_channel", func() error {
		calls++
		return platform.ErrNotFound
	})

	require.ErrorIs(t, err, platform.ErrNotFound)
	require.Equal(t, 1, calls)
	require.Empty(t, *sleeps)
}

func TestRunner_Do_ExhaustsAttempts(t *testing.T) {
	r, sleeps := testRunner(t)

	calls := 0
	err := r.Do(context.Background(), "send_message", func() error {
		calls++
		return errors.New("503")
	})

	require.Error(t, err)
	require.ErrorContains(t, err, "send_message failed after 4 attempts")
	require.Equal(t, DefaultMaxAttempts, calls)
	require.Len(t, *sleeps, DefaultMaxAttempts-1)
}
