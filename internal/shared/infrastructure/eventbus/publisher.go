package eventbus

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/cyclist/internal/shared/domain"
	"github.com/felixgeelhaar/cyclist/pkg/observability"
)

// ExchangeName is the topic exchange cyclist events are published to.
const ExchangeName = "cyclist.events"

// Publisher sends marshalled events to the broker, or straight to local
// consumers when none is configured.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Close() error
}

// PublishEvent publishes event under its routing key. A missing
// correlation id is taken from ctx.
func PublishEvent(ctx context.Context, p Publisher, event *domain.Event) error {
	if event.Metadata.CorrelationID == "" {
		event.Metadata.CorrelationID = observability.CorrelationIDFromContext(ctx)
	}
	payload, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.RoutingKey, err)
	}
	return p.Publish(ctx, event.RoutingKey, payload)
}
