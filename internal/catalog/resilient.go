package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"

	"github.com/darasahq/darasa/internal/domain"
)

// Resilient wraps a catalog with retry and circuit-breaker handling for an
// upstream content service that can flap. Not useful over the in-memory
// registry; wire it around a remote catalog client.
type Resilient struct {
	inner domain.Catalog

	unitBreaker circuitbreaker.CircuitBreaker[*domain.Unit]
	unitRetry   retry.Retry[*domain.Unit]

	exercisesRetry retry.Retry[map[string]domain.Exercise]
	listRetry      retry.Retry[[]*domain.Unit]
}

// NewResilient wraps the catalog with resilience patterns from fortify.
func NewResilient(inner domain.Catalog) *Resilient {
	r := &Resilient{inner: inner}

	r.unitBreaker = circuitbreaker.New[*domain.Unit](circuitbreaker.Config{
		MaxRequests: 2,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(from, to circuitbreaker.State) {
			slog.Warn("catalog circuit breaker state change",
				"from", from.String(),
				"to", to.String())
		},
	})

	r.unitRetry = retry.New[*domain.Unit](retryConfig())
	r.exercisesRetry = retry.New[map[string]domain.Exercise](retryConfig())
	r.listRetry = retry.New[[]*domain.Unit](retryConfig())

	return r
}

func retryConfig() retry.Config {
	return retry.Config{
		MaxAttempts:   3,
		InitialDelay:  200 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		Multiplier:    2.0,
		BackoffPolicy: retry.BackoffExponential,
		Jitter:        true,
		IsRetryable:   isRetryable,
	}
}

// GetUnit fetches a unit behind the circuit breaker with retries.
func (r *Resilient) GetUnit(ctx context.Context, unitID string) (*domain.Unit, error) {
	return r.unitBreaker.Execute(ctx, func(ctx context.Context) (*domain.Unit, error) {
		return r.unitRetry.Do(ctx, func(ctx context.Context) (*domain.Unit, error) {
			return r.inner.GetUnit(ctx, unitID)
		})
	})
}

// GetExercises fetches exercises with retries.
func (r *Resilient) GetExercises(ctx context.Context, ids []string) (map[string]domain.Exercise, error) {
	return r.exercisesRetry.Do(ctx, func(ctx context.Context) (map[string]domain.Exercise, error) {
		return r.inner.GetExercises(ctx, ids)
	})
}

// ListUnits fetches the unit list with retries.
func (r *Resilient) ListUnits(ctx context.Context) ([]*domain.Unit, error) {
	return r.listRetry.Do(ctx, func(ctx context.Context) ([]*domain.Unit, error) {
		return r.inner.ListUnits(ctx)
	})
}

// isRetryable treats lookup misses as permanent; everything else as a
// transient upstream failure.
func isRetryable(err error) bool {
	switch err {
	case nil, domain.ErrUnitNotFound, domain.ErrExerciseNotFound, domain.ErrInvalidReference:
		return false
	}
	return true
}

var _ domain.Catalog = (*Resilient)(nil)
