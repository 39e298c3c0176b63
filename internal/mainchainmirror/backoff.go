package mainchainmirror

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// fibonacciBackOff implements backoff.BackOff as a Fibonacci sequence of
// delays starting at 100ms and capped at 10s, matching the original's
// FibonacciBackoff::from_millis(100).max_delay(10s). cenkalti/backoff/v4
// ships exponential and constant backoffs but not Fibonacci, so this is a
// small adapter onto its BackOff interface rather than a new dependency.
type fibonacciBackOff struct {
	start    time.Duration
	max      time.Duration
	previous time.Duration
	current  time.Duration
}

var _ backoff.BackOff = (*fibonacciBackOff)(nil)

func newFibonacciBackOff(start, max time.Duration) *fibonacciBackOff {
	b := &fibonacciBackOff{start: start, max: max}
	b.Reset()
	return b
}

// NextBackOff returns the next Fibonacci delay, saturating at max.
func (b *fibonacciBackOff) NextBackOff() time.Duration {
	next := b.previous + b.current
	b.previous = b.current
	b.current = next
	if b.current > b.max {
		b.current = b.max
	}
	return b.current
}

// Reset restarts the sequence at start.
func (b *fibonacciBackOff) Reset() {
	b.previous = 0
	b.current = b.start
}
