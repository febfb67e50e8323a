package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func fastPolicy(attempts int) Policy {
	return Policy{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy(5), func(err error) bool {
		return errors.Is(err, errTransient)
	}, func() error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryDoesNotRetryBusinessRejections(t *testing.T) {
	rejection := errors.New("seat already booked")
	calls := 0
	err := Retry(context.Background(), fastPolicy(5), func(err error) bool {
		return errors.Is(err, errTransient)
	}, func() error {
		calls++
		return rejection
	})
	assert.ErrorIs(t, err, rejection)
	assert.Equal(t, 1, calls, "a rejection must propagate on the first attempt")
}

func TestRetryExhaustsBudget(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy(3), func(error) bool { return true }, func() error {
		calls++
		return errTransient
	})
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.ErrorIs(t, err, errTransient, "the last failure must stay reachable")
	assert.Equal(t, 3, calls)
}

func TestRetryHonoursContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Retry(ctx, Policy{MaxAttempts: 5, BaseDelay: time.Minute, MaxDelay: time.Minute},
		func(error) bool { return true },
		func() error {
			calls++
			return errTransient
		})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls, "cancellation must stop the loop at the backoff sleep")
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	p := Policy{MaxAttempts: 10, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}
	assert.Equal(t, 100*time.Millisecond, backoff(p, 1))
	assert.Equal(t, 200*time.Millisecond, backoff(p, 2))
	assert.Equal(t, 400*time.Millisecond, backoff(p, 3))
	assert.Equal(t, 800*time.Millisecond, backoff(p, 4))
	assert.Equal(t, time.Second, backoff(p, 5))
	assert.Equal(t, time.Second, backoff(p, 8))
}
