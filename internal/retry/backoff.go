// Package retry implements the exponential backoff policy used around every
// bucket update attempt.
package retry

import (
	"math/rand"
	"time"
)

const (
	DefaultBase   = time.Second
	DefaultJitter = time.Second

	// MaxDelay caps Base*2^attempt so large bases cannot overflow time.Duration.
	MaxDelay = 24 * time.Hour
)

// Backoff computes the delay before a retry: Base*2^attempt, capped at
// MaxDelay, plus a uniform jitter in [0, Jitter).
type Backoff struct {
	Base   time.Duration
	Jitter time.Duration

	// Rand returns a value in [0, 1). Defaults to math/rand/v2.
	Rand func() float64
}

// DefaultBackoff returns a Backoff with a one second base and one second of jitter.
func DefaultBackoff() Backoff {
	return Backoff{Base: DefaultBase, Jitter: DefaultJitter}
}

// Delay returns the wait before retrying after the given zero-based attempt.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	d := MaxDelay
	if b.Base <= MaxDelay>>uint(attempt) {
		d = b.Base << uint(attempt)
	}
	if b.Jitter > 0 {
		r := b.Rand
		if r == nil {
			r = rand.Float64
		}
		d += time.Duration(r() * float64(b.Jitter))
	}
	return d
}
