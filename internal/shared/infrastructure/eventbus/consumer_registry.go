package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/felixgeelhaar/cyclist/internal/shared/domain"
	"github.com/felixgeelhaar/cyclist/pkg/observability"
)

// AllEvents subscribes a consumer to every routing key. It matches the
// AMQP topic wildcard.
const AllEvents = "#"

type subscription struct {
	pattern  string
	consumer EventConsumer
}

// ConsumerRegistry routes events to the consumers whose patterns match the
// routing key, in registration order.
type ConsumerRegistry struct {
	subscriptions []subscription
	mu            sync.RWMutex
	logger        *slog.Logger
}

// NewConsumerRegistry creates a new consumer registry.
func NewConsumerRegistry(logger *slog.Logger) *ConsumerRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsumerRegistry{logger: logger}
}

// Register adds a consumer for its declared event types.
func (r *ConsumerRegistry) Register(consumer EventConsumer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, pattern := range consumer.EventTypes() {
		r.subscriptions = append(r.subscriptions, subscription{pattern: pattern, consumer: consumer})
		r.logger.Debug("registered consumer for event type",
			"event_type", pattern,
		)
	}
}

// GetConsumers returns the consumers bound to routingKey.
func (r *ConsumerRegistry) GetConsumers(routingKey string) []EventConsumer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var consumers []EventConsumer
	for _, sub := range r.subscriptions {
		if MatchTopic(sub.pattern, routingKey) {
			consumers = append(consumers, sub.consumer)
		}
	}
	return consumers
}

// Dispatch sends an event to all registered consumers for its routing key.
// Every consumer runs; their errors are joined.
func (r *ConsumerRegistry) Dispatch(ctx context.Context, event *domain.Event) error {
	consumers := r.GetConsumers(event.RoutingKey)

	if len(consumers) == 0 {
		r.logger.DebugContext(ctx, "no consumers for event type",
			"routing_key", event.RoutingKey,
		)
		return nil
	}

	var errs []error
	for _, consumer := range consumers {
		if err := consumer.Handle(ctx, event); err != nil {
			r.logger.ErrorContext(ctx, "consumer failed to handle event",
				"routing_key", event.RoutingKey,
				"event_id", event.EventID,
				observability.ErrorKey, err,
			)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// ConsumerCount returns the number of bindings.
func (r *ConsumerRegistry) ConsumerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subscriptions)
}
