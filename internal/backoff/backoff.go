// Package backoff provides exponential backoff with jitter for retrying
// storage connections.
package backoff

import (
	"context"
	"math/rand"
	"time"
)

// Default backoff configuration values.
const (
	DefaultInitial = 200 * time.Millisecond
	DefaultMax     = 2 * time.Second
)

// Backoff implements exponential backoff with jitter.
type Backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
}

// New creates a backoff with the given initial and max durations.
func New(initial, max time.Duration) *Backoff {
	if initial <= 0 {
		initial = DefaultInitial
	}
	if max < initial {
		max = initial
	}
	return &Backoff{
		initial: initial,
		max:     max,
		current: initial,
	}
}

// Next returns the jittered delay for this attempt and doubles the base
// delay for the next one, capped at max.
func (b *Backoff) Next() time.Duration {
	// jitter: ±20%
	jitter := float64(b.current) * 0.2 * (rand.Float64()*2 - 1)
	d := time.Duration(float64(b.current) + jitter)

	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}
	return d
}

// Wait sleeps for the next delay or until ctx is done.
func (b *Backoff) Wait(ctx context.Context) error {
	t := time.NewTimer(b.Next())
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Reset resets the backoff to the initial duration.
func (b *Backoff) Reset() {
	b.current = b.initial
}

// Current returns the base delay of the next attempt.
func (b *Backoff) Current() time.Duration {
	return b.current
}

// Retry calls fn up to attempts times, waiting between failures. It returns
// the last error from fn, or ctx's error when ctx ends first.
func Retry(ctx context.Context, b *Backoff, attempts int, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		if werr := b.Wait(ctx); werr != nil {
			return werr
		}
	}
	return err
}
