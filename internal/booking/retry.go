package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrRetriesExhausted is returned when every attempt of the retry
// budget failed with a transient conflict.  The last attempt's error
// is wrapped and reachable through errors.Unwrap.
var ErrRetriesExhausted = errors.New("retry budget exhausted")

// Policy bounds the retry loop around one orchestrated booking unit.
type Policy struct {
	MaxAttempts int           // total attempts, including the first
	BaseDelay   time.Duration // backoff before the second attempt
	MaxDelay    time.Duration // ceiling for the exponential backoff
}

// DefaultPolicy mirrors the production defaults: five attempts,
// 100ms base, capped at one second.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}
}

// Retry executes fn up to p.MaxAttempts times.  After a failure,
// retryable decides whether the error is a transient conflict worth
// another attempt; anything else propagates immediately, because
// retrying a business rejection would only mask it.  Between
// attempts the loop sleeps an exponential backoff
// (base * 2^(attempt-1), capped at MaxDelay) and honours ctx
// cancellation while sleeping.
func Retry(ctx context.Context, p Policy, retryable func(error) bool, fn func() error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}
		delay := backoff(p, attempt)
		logrus.WithFields(logrus.Fields{
			"attempt": attempt,
			"backoff": delay,
		}).WithError(lastErr).Warn("transient conflict, retrying")
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, p.MaxAttempts, lastErr)
}

func backoff(p Policy, attempt int) time.Duration {
	d := p.BaseDelay << (attempt - 1)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}
