package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var fast = Config{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, BackoffMultiplier: 2}

func TestDoReturnsFirstSuccessWithoutRetry(t *testing.T) {
	calls := 0
	v, err := Do(context.Background(), fast, func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", v)
	require.Equal(t, 1, calls)
}

func TestDoSucceedsOnNthAttempt(t *testing.T) {
	for n := 1; n <= fast.MaxAttempts; n++ {
		t.Run(fmt.Sprintf("attempt_%d", n), func(t *testing.T) {
			calls := 0
			v, err := Do(context.Background(), fast, func(context.Context) (int, error) {
				calls++
				if calls < n {
					return 0, errors.New("transient")
				}
				return 42, nil
			})
			require.NoError(t, err)
			require.Equal(t, 42, v)
			require.Equal(t, n, calls)
		})
	}
}

func TestDoSurfacesLastError(t *testing.T) {
	calls := 0
	errs := []error{errors.New("first"), errors.New("second"), errors.New("third")}

	_, err := Do(context.Background(), fast, func(context.Context) (int, error) {
		e := errs[calls]
		calls++
		return 0, e
	})
	require.Equal(t, fast.MaxAttempts, calls)
	require.Same(t, errs[2], err)
}

func TestDoBacksOffBetweenAttempts(t *testing.T) {
	cfg := Config{MaxAttempts: 2, BaseDelay: 30 * time.Millisecond, MaxDelay: time.Second, BackoffMultiplier: 2}
	calls := 0

	start := time.Now()
	_, err := Do(context.Background(), cfg, func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("transient")
		}
		return 1, nil
	})
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), cfg.BaseDelay)
}

func TestDoWithZeroAttemptsNeverCallsOperation(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Config{}, func(context.Context) (int, error) {
		calls++
		return 0, nil
	})
	require.ErrorIs(t, err, ErrNoAttempts)
	require.Zero(t, calls)
}

func TestDoStopsWaitingWhenContextCancelled(t *testing.T) {
	cfg := Config{MaxAttempts: 3, BaseDelay: time.Hour, MaxDelay: time.Hour, BackoffMultiplier: 2}
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := Do(ctx, cfg, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("boom")
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

func TestRunPropagatesError(t *testing.T) {
	boom := errors.New("insert failed")
	calls := 0
	err := Run(context.Background(), fast, func(context.Context) error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 3, calls)
}

func TestConfigDelay(t *testing.T) {
	require.Equal(t, time.Second, DefaultConfig.Delay(1))
	require.Equal(t, 2*time.Second, DefaultConfig.Delay(2))
	require.Equal(t, 8*time.Second, DefaultConfig.Delay(4))
	require.Equal(t, 10*time.Second, DefaultConfig.Delay(5))

	require.Equal(t, 500*time.Millisecond, StorageConfig.Delay(1))
	require.Equal(t, 5*time.Second, StorageConfig.Delay(10))
}

func TestPresets(t *testing.T) {
	require.Equal(t, Config{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 10 * time.Second, BackoffMultiplier: 2}, DefaultConfig)
	require.Equal(t, Config{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond, MaxDelay: 5 * time.Second, BackoffMultiplier: 2}, StorageConfig)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	sentinel := errors.New("not configured")
	calls := 0
	_, err := Do(context.Background(), fast, func(context.Context) (int, error) {
		calls++
		return 0, fmt.Errorf("insert: %w", Permanent(sentinel))
	})
	require.Equal(t, 1, calls)
	require.Same(t, sentinel, err)

	require.NoError(t, Permanent(nil))
}
