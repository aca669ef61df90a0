package httputil

import (
	"context"
	"errors"
	"time"

	errs "github.com/matzehuels/mindgraph/pkg/errors"
)

// Backoff retries transient failures with a doubling delay.
type Backoff struct {
	Attempts int           // total tries, at least 1
	Delay    time.Duration // wait before the second try
	MaxDelay time.Duration // cap on any single wait; 0 means no cap
}

// DefaultBackoff tries three times, waiting one and then two seconds.
var DefaultBackoff = Backoff{Attempts: 3, Delay: time.Second, MaxDelay: 30 * time.Second}

// Do calls fn until it succeeds, returns a permanent error, or the attempts
// run out. A Retry-After carried by a [StatusError] lengthens the wait.
// When ctx ends during a wait, Do returns ctx.Err().
func (b Backoff) Do(ctx context.Context, fn func(context.Context) error) error {
	delay := b.Delay
	var err error
	for i := range max(b.Attempts, 1) {
		if i > 0 {
			wait := max(delay, retryAfter(err))
			if b.MaxDelay > 0 {
				wait = min(wait, b.MaxDelay)
			}
			t := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
			delay *= 2
		}
		if err = fn(ctx); err == nil || !Transient(err) {
			return err
		}
	}
	return err
}

// Transient reports whether err is worth another try: a temporary
// [StatusError] or an error whose code is retryable.
func Transient(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return errs.IsRetryable(err)
}

func retryAfter(err error) time.Duration {
	var se *StatusError
	if errors.As(err, &se) {
		return se.RetryAfter
	}
	return 0
}
