package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrCacheMiss is returned by GetJSON when key is absent or its entry
	// cannot be decoded.
	ErrCacheMiss = errors.New("cache miss")

	// ErrUnavailable is returned by Open when a remote backend does not
	// answer its first ping.
	ErrUnavailable = errors.New("cache backend unavailable")
)

// Startup probe of remote backends.
var (
	pingAttempts = 3
	pingTimeout  = 2 * time.Second
	pingDelay    = 250 * time.Millisecond
)

// waitReady pings a freshly dialed backend until it answers. Each ping gets
// pingTimeout; the wait between pings doubles. Failure is reported as
// ErrUnavailable naming the backend.
func waitReady(ctx context.Context, backend string, ping func(context.Context) error) error {
	delay := pingDelay
	var err error
	for i := 0; i < pingAttempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %s: %w", ErrUnavailable, backend, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		err = ping(pctx)
		cancel()
		if err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, backend, err)
}
