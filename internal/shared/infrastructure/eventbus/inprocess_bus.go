package eventbus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/cyclist/internal/shared/domain"
	"github.com/felixgeelhaar/cyclist/pkg/observability"
)

// InProcessEventBus hands events straight to local consumers. The worker
// uses it when RABBITMQ_URL is unset; it is both Publisher and Consumer.
type InProcessEventBus struct {
	registry *ConsumerRegistry
	logger   *slog.Logger
	// mu delivers one event at a time, matching a single-consumer queue.
	mu sync.Mutex
}

// NewInProcessEventBus creates a new in-process event bus.
func NewInProcessEventBus(logger *slog.Logger) *InProcessEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessEventBus{
		registry: NewConsumerRegistry(logger),
		logger:   logger,
	}
}

func (b *InProcessEventBus) RegisterConsumer(consumer EventConsumer) {
	b.registry.Register(consumer)
}

// Publish decodes payload and delivers it to the consumers bound to
// routingKey under the event's correlation and user ids. Malformed payloads
// and consumer failures are logged and never returned, so recording a cycle
// is not failed by an audit consumer.
func (b *InProcessEventBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	event, err := domain.UnmarshalEvent(payload, routingKey)
	if err != nil {
		b.logger.ErrorContext(ctx, "dropping event", "routing_key", routingKey, observability.ErrorKey, err)
		return nil
	}
	ctx = ScopeContext(ctx, event)

	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	err = b.registry.Dispatch(ctx, event)
	attrs := []any{
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		observability.DurationKey, time.Since(start).Milliseconds(),
	}
	if err != nil {
		b.logger.ErrorContext(ctx, "event dispatch failed", append(attrs, observability.ErrorKey, err)...)
		return nil
	}
	b.logger.DebugContext(ctx, "event dispatched", attrs...)
	return nil
}

// Close is a no-op.
func (b *InProcessEventBus) Close() error {
	return nil
}

// Start blocks until ctx is cancelled; delivery happens inside Publish.
func (b *InProcessEventBus) Start(ctx context.Context) error {
	b.logger.Info("in-process event bus started", "bindings", b.registry.ConsumerCount())
	<-ctx.Done()
	return ctx.Err()
}

// ScopeContext carries the event's correlation and user ids on ctx.
func ScopeContext(ctx context.Context, event *domain.Event) context.Context {
	if id := event.Metadata.CorrelationID; id != "" {
		ctx = observability.WithCorrelationID(ctx, id)
	}
	return observability.WithUserID(ctx, event.Metadata.UserID)
}
