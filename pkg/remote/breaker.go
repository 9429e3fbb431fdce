package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

var ErrCircuitOpen = errors.New("circuit breaker open")

type BreakerSettings struct {
	// consecutive failures before the breaker opens
	Failures uint32
	// how long the breaker stays open before letting a probe through
	OpenTimeout time.Duration
	Interval    time.Duration
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Failures:    5,
		OpenTimeout: 30 * time.Second,
		Interval:    time.Minute,
	}
}

func newBreaker(name string, s BreakerSettings) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    s.Interval,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= s.Failures
		},
		// a caller that gives up says nothing about the backend
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

// abandoned tags err with context.Canceled when ctx was cancelled while the
// call ran, whatever error the transport or decoder surfaced for it.
func abandoned(ctx context.Context, err error) error {
	if err == nil || errors.Is(err, context.Canceled) || !errors.Is(ctx.Err(), context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %w", context.Canceled, err)
}

// breakerError reports a short-circuited call as ErrCircuitOpen and passes
// every other error through.
func breakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	return err
}
