// Package outbox stores domain events in the same transaction as the state
// change that produced them and publishes them to the event bus afterwards.
package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/cyclist/internal/shared/domain"
	"github.com/felixgeelhaar/cyclist/pkg/observability"
)

// Message represents an outbox message ready for publishing.
type Message struct {
	ID               int64
	EventID          uuid.UUID
	AggregateType    string
	AggregateID      uuid.UUID
	RoutingKey       string
	Payload          []byte // the marshalled domain.Event envelope
	CreatedAt        time.Time
	PublishedAt      *time.Time
	NextRetryAt      *time.Time
	RetryCount       int
	LastError        *string
	DeadLetteredAt   *time.Time
	DeadLetterReason *string
}

// NewMessage creates an outbox message from an event envelope.
func NewMessage(event domain.Event) (*Message, error) {
	payload, err := event.Marshal()
	if err != nil {
		return nil, err
	}

	return &Message{
		EventID:       event.EventID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		RoutingKey:    event.RoutingKey,
		Payload:       payload,
		CreatedAt:     event.OccurredAt,
	}, nil
}

// Record stamps events with the correlation ID carried by ctx and userID,
// then saves them through w. A nil writer records nothing.
func Record(ctx context.Context, w Writer, userID uuid.UUID, events ...domain.Event) error {
	if w == nil || len(events) == 0 {
		return nil
	}

	correlationID := observability.CorrelationIDFromContext(ctx)
	msgs := make([]*Message, 0, len(events))
	for _, event := range events {
		if event.Metadata.CorrelationID == "" {
			event.Metadata.CorrelationID = correlationID
		}
		if event.Metadata.UserID == uuid.Nil {
			event.Metadata.UserID = userID
		}
		msg, err := NewMessage(event)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	return w.SaveBatch(ctx, msgs)
}
