package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func noSleep(context.Context, time.Duration) error { return nil }

func TestPolicyDo(t *testing.T) {
	errBusy := errors.New("503 backend unavailable")
	errGone := errors.New("404 no such bucket")

	Convey("Given a five attempt policy that never sleeps", t, func() {
		var delays []time.Duration
		p := Policy{
			MaxAttempts: 5,
			Backoff:     Backoff{Base: time.Second, Rand: func() float64 { return 0 }},
			Sleep: func(_ context.Context, d time.Duration) error {
				delays = append(delays, d)
				return nil
			},
		}
		ctx := context.Background()

		Convey("A first-try success runs once", func() {
			calls := 0
			out := p.Do(ctx, func(context.Context, int) Outcome { calls++; return Ok() })
			So(out.Kind, ShouldEqual, Success)
			So(out.Attempts, ShouldEqual, 1)
			So(calls, ShouldEqual, 1)
			So(delays, ShouldBeEmpty)
		})

		Convey("Three transient failures then success ends in success", func() {
			out := p.Do(ctx, func(_ context.Context, attempt int) Outcome {
				if attempt < 3 {
					return Retry(errBusy)
				}
				return Ok()
			})
			So(out.Kind, ShouldEqual, Success)
			So(out.Err, ShouldBeNil)
			So(out.Attempts, ShouldEqual, 4)
			So(delays, ShouldResemble, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second})
		})

		Convey("Terminal failures are not retried", func() {
			calls := 0
			out := p.Do(ctx, func(context.Context, int) Outcome { calls++; return Fail(errGone) })
			So(out.Kind, ShouldEqual, Terminal)
			So(out.Err, ShouldEqual, errGone)
			So(calls, ShouldEqual, 1)
		})

		Convey("Persistent transient failures exhaust the policy", func() {
			calls := 0
			out := p.Do(ctx, func(context.Context, int) Outcome { calls++; return Retry(errBusy) })
			So(out.Kind, ShouldEqual, Exhausted)
			So(out.Attempts, ShouldEqual, 5)
			So(calls, ShouldEqual, 5)
			So(errors.Is(out.Err, ErrExhausted), ShouldBeTrue)
			So(errors.Is(out.Err, errBusy), ShouldBeTrue)
			So(len(delays), ShouldEqual, 4)
		})

		Convey("OnRetry sees every retried failure", func() {
			var seen []int
			p.OnRetry = func(attempt int, err error, _ time.Duration) {
				So(err, ShouldEqual, errBusy)
				seen = append(seen, attempt)
			}
			p.Do(ctx, func(context.Context, int) Outcome { return Retry(errBusy) })
			So(seen, ShouldResemble, []int{0, 1, 2, 3})
		})
	})

	Convey("A cancelled context stops the wait between attempts", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		p := Policy{MaxAttempts: 3, Backoff: Backoff{Base: time.Hour}}
		out := p.Do(ctx, func(context.Context, int) Outcome { return Retry(errBusy) })
		So(out.Kind, ShouldEqual, Terminal)
		So(errors.Is(out.Err, context.Canceled), ShouldBeTrue)
		So(out.Attempts, ShouldEqual, 1)
	})

	Convey("A zero MaxAttempts still makes one attempt", t, func() {
		calls := 0
		out := Policy{}.Do(context.Background(), func(context.Context, int) Outcome { calls++; return Retry(errBusy) })
		So(calls, ShouldEqual, 1)
		So(out.Kind, ShouldEqual, Exhausted)
	})
}
