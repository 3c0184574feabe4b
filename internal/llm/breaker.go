package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Harshitk-cp/knet/internal/domain"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrGeneratorUnavailable is returned while the breaker is open or
// half-open and saturated.
var ErrGeneratorUnavailable = errors.New("theory generator temporarily unavailable")

type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      2,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      3,
	}
}

// BreakerGenerator guards a remote generator so repeated provider failures
// fail fast instead of holding requests for the full HTTP timeout.
type BreakerGenerator struct {
	next domain.TheoryGenerator
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerGenerator(next domain.TheoryGenerator, cfg BreakerConfig, logger *zap.Logger) *BreakerGenerator {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("theory generator breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		// Cancelled requests and permanent API rejections say nothing about
		// provider health.
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var apiErr *APIError
			return errors.As(err, &apiErr) && !apiErr.Temporary()
		},
	})
	return &BreakerGenerator{next: next, cb: cb}
}

func (b *BreakerGenerator) GenerateTheory(ctx context.Context, req domain.TheoryRequest) (*domain.TheoryDraft, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.GenerateTheory(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrGeneratorUnavailable, err)
		}
		return nil, err
	}
	return out.(*domain.TheoryDraft), nil
}

func (b *BreakerGenerator) State() gobreaker.State {
	return b.cb.State()
}
