// Package retry runs an operation with exponential backoff.
//
// Only errors the caller classifies as transient are retried; everything else
// is returned on the first attempt.
package retry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// Config controls the backoff schedule.
type Config struct {
	MaxAttempts  int           // total attempts, values < 1 mean a single attempt
	InitialDelay time.Duration // delay before the second attempt
	MaxDelay     time.Duration // upper bound for any single delay
	Multiplier   float64       // growth factor between delays
	Jitter       bool          // add up to 25% random jitter to each delay
}

// DefaultConfig returns the backoff used for remote schema lookups.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     3 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// Do calls fn until it succeeds, returns an error for which retryable reports
// false, the attempts run out, or ctx is done.
func Do(ctx context.Context, cfg Config, retryable func(error) bool, fn func() error) error {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := cfg.InitialDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	mult := cfg.Multiplier
	if mult < 1 {
		mult = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		sleep := delay
		if cfg.Jitter && delay >= 4 {
			sleep += time.Duration(rand.Int64N(int64(delay / 4)))
		}
		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry: cancelled before attempt %d: %w", attempt+1, ctx.Err())
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * mult)
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	if attempts == 1 {
		return lastErr
	}
	return fmt.Errorf("retry: giving up after %d attempts: %w", attempts, lastErr)
}

// DoWithResult is Do for operations that produce a value.
func DoWithResult[T any](ctx context.Context, cfg Config, retryable func(error) bool, fn func() (T, error)) (T, error) {
	var result T
	err := Do(ctx, cfg, retryable, func() error {
		var err error
		result, err = fn()
		return err
	})
	return result, err
}
