package repeat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errBoom = errors.New("boom")

func TestDo(t *testing.T) {
	t.Run("succeeds_after_retries", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), Options{Attempts: 3}, func(context.Context) error {
			calls++
			if calls < 3 {
				return errBoom
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("returns_last_error", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), Options{Attempts: 2, Delay: time.Millisecond}, func(context.Context) error {
			calls++
			return errBoom
		})
		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, 2, calls)
	})

	t.Run("stops_on_non_retryable", func(t *testing.T) {
		calls := 0
		other := errors.New("fatal")
		err := Do(context.Background(), Options{
			Attempts: 5,
			RetryIf:  func(err error) bool { return errors.Is(err, errBoom) },
		}, func(context.Context) error {
			calls++
			return other
		})
		assert.ErrorIs(t, err, other)
		assert.Equal(t, 1, calls)
	})

	t.Run("context_cancelled_between_attempts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := Do(ctx, Options{Attempts: 10, Delay: time.Hour}, func(context.Context) error {
			calls++
			cancel()
			return errBoom
		})
		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, 1, calls)
	})

	t.Run("zero_attempts_runs_once", func(t *testing.T) {
		calls := 0
		_ = Do(context.Background(), Options{}, func(context.Context) error {
			calls++
			return errBoom
		})
		assert.Equal(t, 1, calls)
	})
}

func TestRepeat(t *testing.T) {
	calls := 0
	err := Repeat(func() error {
		calls++
		if calls == 1 {
			return errBoom
		}
		return nil
	}, 3, time.Millisecond)
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}
