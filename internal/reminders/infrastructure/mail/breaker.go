package mail

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/felixgeelhaar/cyclist/internal/reminders/domain"
)

// ErrDispatcherUnavailable is returned while the breaker is open.
var ErrDispatcherUnavailable = errors.New("mail dispatcher unavailable")

// Dispatcher delivers a notification.
type Dispatcher interface {
	Dispatch(ctx context.Context, n domain.Notification) error
}

// Validator is implemented by dispatchers that can reject a notification
// before contacting the relay.
type Validator interface {
	Validate(n domain.Notification) error
}

// BreakerConfig configures the circuit breaker.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultBreakerConfig returns the default breaker configuration.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          2 * time.Minute,
		FailureThreshold: 5,
	}
}

// BreakerDispatcher stops calling a failing relay until it recovers.
type BreakerDispatcher struct {
	next    Dispatcher
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewBreakerDispatcher wraps next in a circuit breaker.
func NewBreakerDispatcher(next Dispatcher, config BreakerConfig, logger *slog.Logger) *BreakerDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if config.FailureThreshold == 0 {
		config.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}

	settings := gobreaker.Settings{
		Name:        "mail",
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsRecipientRejected(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &BreakerDispatcher{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

// Dispatch forwards n unless the breaker is open. Notifications the next
// dispatcher rejects up front never reach the breaker, and recipient
// rejections do not count as relay failures.
func (d *BreakerDispatcher) Dispatch(ctx context.Context, n domain.Notification) error {
	if v, ok := d.next.(Validator); ok {
		if err := v.Validate(n); err != nil {
			return err
		}
	}
	_, err := d.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, d.next.Dispatch(ctx, n)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrDispatcherUnavailable
	}
	return err
}

// State returns the breaker state name.
func (d *BreakerDispatcher) State() string {
	return d.breaker.State().String()
}
