package rpmsg

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Backoff for opening a freshly created endpoint node, which udev may still
// be adjusting.
const (
	openBackoffInitial = 20 * time.Millisecond
	openBackoffMax     = 500 * time.Millisecond
	DefaultOpenRetries = 5
)

// backoff implements exponential backoff with jitter.
type backoff struct {
	initial time.Duration
	limit   time.Duration
	current time.Duration
}

func newBackoff(initial, limit time.Duration) *backoff {
	return &backoff{initial: initial, limit: limit, current: initial}
}

// Next returns the jittered delay to wait now and doubles the base for the
// following call.
func (b *backoff) Next() time.Duration {
	// Add jitter: ±20%
	jitter := float64(b.current) * 0.2 * (rand.Float64()*2 - 1)
	d := time.Duration(float64(b.current) + jitter)

	b.current *= 2
	if b.current > b.limit {
		b.current = b.limit
	}
	return d
}

// OpenWithRetry calls Open up to attempts times, backing off between tries.
// If ctx ends while backing off, the error wraps both ctx.Err() and the last
// open error.
func OpenWithRetry(ctx context.Context, path string, maxFrame, attempts int) (*Channel, error) {
	if attempts < 1 {
		attempts = 1
	}
	b := newBackoff(openBackoffInitial, openBackoffMax)

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w (last attempt: %w)", ctx.Err(), lastErr)
			case <-time.After(b.Next()):
			}
		}
		ch, err := Open(path, maxFrame)
		if err == nil {
			return ch, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
