// Package retry wraps read calls to the remote API in a bounded exponential
// backoff. Write calls are never retried.
package retry

import (
	"context"
	"log"
	"time"

	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/domain"
)

// Policy describes how many times and how often a call is retried
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Retryable  func(error) bool

	// sleep waits for d or until ctx is done; replaced in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// Default retries network errors three times, waiting 1s, 2s and 4s
func Default() Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		Retryable:  domain.IsNetwork,
	}
}

// Delay returns the wait before retry number n (0-based)
func (p Policy) Delay(n int) time.Duration {
	return p.BaseDelay << n
}

// Do runs fn until it succeeds, returns a non-retryable error, or the
// retries are used up. The last error is returned as-is.
func (p Policy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	retryable := p.Retryable
	if retryable == nil {
		retryable = domain.IsNetwork
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt >= p.MaxRetries || !retryable(err) {
			return err
		}

		delay := p.Delay(attempt)
		log.Printf("%s failed (attempt %d/%d): %v; retrying in %s", op, attempt+1, p.MaxRetries+1, err, delay)
		if serr := sleep(ctx, delay); serr != nil {
			return err
		}
	}
}

// Value runs fn under the policy and returns its result
func Value[T any](ctx context.Context, p Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, op, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
