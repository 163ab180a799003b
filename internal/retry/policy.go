package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/googleapis/gax-go/v2"
)

// DefaultMaxAttempts is the number of attempts made before giving up on
// transient errors.
const DefaultMaxAttempts = 5

// ErrExhausted is wrapped by the error of an Exhausted outcome.
var ErrExhausted = errors.New("retries exhausted")

// Kind classifies the outcome of an attempt.
type Kind int

const (
	Success Kind = iota
	Retryable
	Terminal
	Exhausted
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Retryable:
		return "retryable"
	case Terminal:
		return "terminal"
	case Exhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is the explicit result of an attempt or of a whole retried operation.
type Outcome struct {
	Kind     Kind
	Err      error
	Attempts int
}

// Ok reports a successful attempt.
func Ok() Outcome { return Outcome{Kind: Success} }

// Retry reports a failed attempt that may succeed if tried again.
func Retry(err error) Outcome { return Outcome{Kind: Retryable, Err: err} }

// Fail reports a failed attempt that must not be retried.
func Fail(err error) Outcome { return Outcome{Kind: Terminal, Err: err} }

// Failed returns true unless the outcome is a success.
func (o Outcome) Failed() bool { return o.Kind != Success }

// Op is a single attempt. attempt starts at zero.
type Op func(ctx context.Context, attempt int) Outcome

// Policy retries an Op on Retryable outcomes up to MaxAttempts times,
// sleeping Backoff.Delay(attempt) between attempts.
type Policy struct {
	MaxAttempts int
	Backoff     Backoff

	// Sleep waits for d or until ctx is done. Defaults to gax.Sleep.
	Sleep func(ctx context.Context, d time.Duration) error

	// OnRetry is called before sleeping ahead of the next attempt.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultPolicy returns a Policy with DefaultMaxAttempts and DefaultBackoff.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, Backoff: DefaultBackoff()}
}

// Do runs op until it succeeds, fails terminally, or MaxAttempts retryable
// failures have been seen. The returned outcome is never Retryable.
func (p Policy) Do(ctx context.Context, op Op) Outcome {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = gax.Sleep
	}

	var last error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		out := op(ctx, attempt)
		out.Attempts = attempt + 1
		if out.Kind != Retryable {
			return out
		}
		last = out.Err

		if attempt == maxAttempts-1 {
			break
		}
		delay := p.Backoff.Delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, last, delay)
		}
		if err := sleep(ctx, delay); err != nil {
			return Outcome{Kind: Terminal, Err: fmt.Errorf("waiting to retry: %w", err), Attempts: attempt + 1}
		}
	}

	return Outcome{
		Kind:     Exhausted,
		Err:      fmt.Errorf("%w after %d attempts: %w", ErrExhausted, maxAttempts, last),
		Attempts: maxAttempts,
	}
}
