package genai

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sony/gobreaker"

	errs "github.com/matzehuels/mindgraph/pkg/errors"
)

// BreakerConfig tunes [WithBreaker].
type BreakerConfig struct {
	MaxRequests      uint32        // probes allowed while half-open
	Interval         time.Duration // closed-state window for resetting counts
	Timeout          time.Duration // open duration before probing
	MinRequests      uint32        // requests needed before the ratio counts
	FailureThreshold float64       // failure ratio that opens the breaker
}

// DefaultBreakerConfig is a lenient breaker for interactive use.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      2,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		MinRequests:      4,
		FailureThreshold: 0.75,
	}
}

type breakerProvider struct {
	Provider
	cb *gobreaker.CircuitBreaker
}

// WithBreaker wraps p in a circuit breaker. Only upstream failures count:
// rejected requests (GENERATION_FAILED) and cancellations do not open it.
// While open, calls fail fast with NETWORK_ERROR.
func WithBreaker(p Provider, cfg BreakerConfig, logger *log.Logger) Provider {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        p.Name(),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.Requests < cfg.MinRequests {
				return false
			}
			return float64(c.TotalFailures)/float64(c.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger != nil {
				logger.Warn("circuit breaker state changed", "provider", name, "from", from.String(), "to", to.String())
			}
		},
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			return errs.Is(err, errs.ErrCodeGenerationFailed)
		},
	})
	return &breakerProvider{Provider: p, cb: cb}
}

func (b *breakerProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.Provider.Complete(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, errs.Wrap(errs.ErrCodeNetwork, err, "the AI service is failing, try again in a moment")
		}
		return nil, err
	}
	return out.(*Response), nil
}
