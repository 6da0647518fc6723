package store

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/courtside/shotchart-api/internal/models"
)

var breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "shotstats_store_breaker_state",
	Help: "Circuit breaker state per source (0 closed, 1 half-open, 2 open)",
}, []string{"source"})

// BreakerConfig configures the circuit breaker in front of a source.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// Guarded wraps a ShotSource in a circuit breaker. When the breaker is open
// calls fail fast with ErrUnavailable so callers descend a tier without
// waiting on a dead store. ErrNotFound is an answer, not a failure.
type Guarded struct {
	next   ShotSource
	cb     *gobreaker.CircuitBreaker[any]
	logger *zap.SugaredLogger
}

func NewGuarded(next ShotSource, cfg BreakerConfig, logger *zap.SugaredLogger) *Guarded {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Name == "" {
		cfg.Name = "shots"
	}

	g := &Guarded{next: next, logger: logger}
	g.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		IsExcluded: func(err error) bool {
			var ce *callerGoneError
			return errors.As(err, &ce)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			breakerState.WithLabelValues(name).Set(float64(to))
			logger.Warnw("Shot source breaker state changed", "source", name, "from", from.String(), "to", to.String())
		},
	})
	breakerState.WithLabelValues(cfg.Name).Set(0)
	return g
}

// State reports the breaker state for readiness output.
func (g *Guarded) State() string {
	return g.cb.State().String()
}

// callerGoneError marks a failure caused by the caller's own context ending.
// The breaker excludes it so abandoned requests never count against the store.
type callerGoneError struct {
	err error
}

func (e *callerGoneError) Error() string { return e.err.Error() }
func (e *callerGoneError) Unwrap() error { return e.err }

// guard runs fn through the breaker, translating breaker rejections.
func guard[T any](ctx context.Context, g *Guarded, fn func() (T, error)) (T, error) {
	res, err := g.cb.Execute(func() (any, error) {
		v, err := fn()
		if err != nil && ctx.Err() != nil {
			return nil, &callerGoneError{err: err}
		}
		return v, err
	})
	var zero T
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return zero, unavailable(g.cb.Name(), err)
	}
	var ce *callerGoneError
	if errors.As(err, &ce) {
		return zero, ce.err
	}
	if err != nil {
		return zero, err
	}
	return res.(T), nil
}

func (g *Guarded) PlayersWithStats(ctx context.Context, search string, minShots, limit int) ([]models.RosterEntry, error) {
	return guard(ctx, g, func() ([]models.RosterEntry, error) {
		return g.next.PlayersWithStats(ctx, search, minShots, limit)
	})
}

func (g *Guarded) PlayerStats(ctx context.Context, player string, years []int) (*models.PlayerSummary, error) {
	return guard(ctx, g, func() (*models.PlayerSummary, error) {
		return g.next.PlayerStats(ctx, player, years)
	})
}

func (g *Guarded) PlayerShots(ctx context.Context, player string, years []int, offset, limit int) ([]models.Shot, error) {
	return guard(ctx, g, func() ([]models.Shot, error) {
		return g.next.PlayerShots(ctx, player, years, offset, limit)
	})
}

func (g *Guarded) AvailableYears(ctx context.Context) ([]int, error) {
	return guard(ctx, g, func() ([]int, error) {
		return g.next.AvailableYears(ctx)
	})
}

func (g *Guarded) Ping(ctx context.Context) error {
	return g.next.Ping(ctx)
}
