package connector

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	scherrors "github.com/scholaris-ai/scholaris/internal/errors"
)

// ResilientConnector wraps a Connector with a rate limiter, retry
// with backoff, and a circuit breaker. Free literature APIs throttle
// aggressively; the breaker keeps a failing source from stalling
// every aggregated search.
type ResilientConnector struct {
	inner   Connector
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[any]
	logger  *slog.Logger
}

var _ Connector = (*ResilientConnector)(nil)

// NewResilientConnector wraps inner, allowing at most rps requests
// per second against the source.
func NewResilientConnector(inner Connector, rps float64, logger *slog.Logger) *ResilientConnector {
	if rps <= 0 {
		rps = 2
	}
	if logger == nil {
		logger = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:        inner.SourceName(),
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("connector circuit state change",
				"source", name, "from", from.String(), "to", to.String())
		},
	}

	return &ResilientConnector{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		breaker: gobreaker.NewCircuitBreaker[any](settings),
		logger:  logger,
	}
}

// SourceName returns the wrapped connector's source name.
func (r *ResilientConnector) SourceName() string {
	return r.inner.SourceName()
}

// Search applies rate limiting, the circuit breaker, and retry
// around the wrapped search.
func (r *ResilientConnector) Search(ctx context.Context, query string, limit int) ([]Record, error) {
	v, err := r.breaker.Execute(func() (any, error) {
		return scherrors.RetryWithResult(ctx, DefaultConnectorRetry(), func() ([]Record, error) {
			if err := r.limiter.Wait(ctx); err != nil {
				return nil, err
			}
			return r.inner.Search(ctx, query, limit)
		})
	})
	if err != nil {
		return nil, err
	}
	records, _ := v.([]Record)
	return records, nil
}

// GetByID applies the same guards around the wrapped lookup.
func (r *ResilientConnector) GetByID(ctx context.Context, paperID string) (*Record, error) {
	v, err := r.breaker.Execute(func() (any, error) {
		return scherrors.RetryWithResult(ctx, DefaultConnectorRetry(), func() (*Record, error) {
			if err := r.limiter.Wait(ctx); err != nil {
				return nil, err
			}
			return r.inner.GetByID(ctx, paperID)
		})
	})
	if err != nil {
		return nil, err
	}
	record, _ := v.(*Record)
	return record, nil
}

// Close closes the wrapped connector.
func (r *ResilientConnector) Close() error {
	return r.inner.Close()
}

// DefaultConnectorRetry is the backoff used for literature API calls.
func DefaultConnectorRetry() scherrors.RetryConfig {
	return scherrors.RetryConfig{
		MaxRetries:   2,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}
