package consumers

import (
	"context"
	"log/slog"
	"sync"

	"github.com/felixgeelhaar/cyclist/internal/reminders/domain"
	sharedDomain "github.com/felixgeelhaar/cyclist/internal/shared/domain"
	"github.com/felixgeelhaar/cyclist/pkg/observability"
)

// DefaultAuditCapacity is how many recent deliveries are retained.
const DefaultAuditCapacity = 50

// DeliveryAuditConsumer records sent reminders from NotificationSent events.
// It keeps the most recent deliveries for the health endpoint.
type DeliveryAuditConsumer struct {
	logger   *slog.Logger
	metrics  observability.Metrics
	capacity int

	mu     sync.Mutex
	recent []domain.NotificationSent
}

// NewDeliveryAuditConsumer creates a new DeliveryAuditConsumer.
func NewDeliveryAuditConsumer(capacity int, logger *slog.Logger, metrics observability.Metrics) *DeliveryAuditConsumer {
	if capacity <= 0 {
		capacity = DefaultAuditCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &DeliveryAuditConsumer{
		logger:   logger,
		metrics:  metrics,
		capacity: capacity,
	}
}

// EventTypes returns the routing keys this consumer handles.
func (c *DeliveryAuditConsumer) EventTypes() []string {
	return []string{domain.RoutingKeyNotificationSent}
}

// Handle records one delivery.
func (c *DeliveryAuditConsumer) Handle(ctx context.Context, event *sharedDomain.Event) error {
	var sent domain.NotificationSent
	if err := event.DecodePayload(&sent); err != nil {
		return err
	}

	c.mu.Lock()
	if len(c.recent) == c.capacity {
		c.recent = c.recent[1:]
	}
	c.recent = append(c.recent, sent)
	c.mu.Unlock()

	c.metrics.Counter(observability.MetricDeliveriesAudited, 1, observability.T("type", string(sent.Type)))
	ctx = observability.WithRuleID(ctx, sent.RuleID)
	c.logger.InfoContext(ctx, "reminder delivery recorded",
		"event_id", event.EventID,
		"type", sent.Type,
		"event_date", sent.EventDate,
	)
	return nil
}

// Recent returns the retained deliveries, newest last.
func (c *DeliveryAuditConsumer) Recent() []domain.NotificationSent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.NotificationSent, len(c.recent))
	copy(out, c.recent)
	return out
}
