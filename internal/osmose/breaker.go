package osmose

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/osm-campaigns/dashboard/internal/config"
	"github.com/osm-campaigns/dashboard/internal/metrics"
	"github.com/osm-campaigns/dashboard/pkg/logger"
)

const breakerName = "osmose-api"

// StatsFetcher is implemented by Client and BreakerClient.
type StatsFetcher interface {
	Stats(ctx context.Context, q Query) ([]Sample, error)
}

// BreakerClient wraps a StatsFetcher with a circuit breaker. While the circuit is open,
// calls fail immediately with gobreaker.ErrOpenState.
type BreakerClient struct {
	next StatsFetcher
	cb   *gobreaker.CircuitBreaker[[]Sample]
	log  *logger.Logger
}

// NewBreakerClient creates a circuit breaker around next.
func NewBreakerClient(next StatsFetcher, cfg *config.OsmoseConfig, log *logger.Logger) *BreakerClient {
	failures := uint32(cfg.BreakerFailures)
	if failures == 0 {
		failures = 5
	}
	timeout := time.Duration(cfg.BreakerTimeout) * time.Second
	if timeout <= 0 {
		timeout = time.Minute
	}

	metrics.SetCircuitBreakerState(breakerName, 0)

	b := &BreakerClient{next: next, log: log}
	b.cb = gobreaker.NewCircuitBreaker[[]Sample](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up is not an upstream failure.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state transition")
			metrics.SetCircuitBreakerState(name, stateToFloat(to))
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
		},
	})
	return b
}

// Stats fetches issue statistics through the breaker.
func (b *BreakerClient) Stats(ctx context.Context, q Query) ([]Sample, error) {
	samples, err := b.cb.Execute(func() ([]Sample, error) {
		return b.next.Stats(ctx, q)
	})
	switch {
	case err == nil:
		metrics.RecordCircuitBreakerRequest(breakerName, "success")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordCircuitBreakerRequest(breakerName, "rejected")
	default:
		metrics.RecordCircuitBreakerRequest(breakerName, "failure")
	}
	return samples, err
}

// State returns the current breaker state.
func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
