package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrMalformedEvent is returned when a published body is not an event envelope.
var ErrMalformedEvent = errors.New("malformed event")

// Event is the envelope published to the event bus.
type Event struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	RoutingKey    string          `json:"routing_key"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Metadata      EventMetadata   `json:"metadata"`
	Payload       json.RawMessage `json:"payload"`
}

// EventMetadata ties an event to the command or tick that raised it.
type EventMetadata struct {
	CorrelationID string    `json:"correlation_id,omitempty"`
	UserID        uuid.UUID `json:"user_id"`
}

// NewEvent wraps payload in an envelope. occurredAt is normalized to UTC.
func NewEvent(aggregateID uuid.UUID, aggregateType, routingKey string, occurredAt time.Time, payload any) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", routingKey, err)
	}
	return Event{
		EventID:       uuid.New(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		RoutingKey:    routingKey,
		OccurredAt:    occurredAt.UTC(),
		Payload:       body,
	}, nil
}

// UnmarshalEvent decodes a published envelope. routingKey fills in an
// envelope that does not name its own.
func UnmarshalEvent(data []byte, routingKey string) (*Event, error) {
	event := &Event{}
	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if event.RoutingKey == "" {
		event.RoutingKey = routingKey
	}
	return event, nil
}

// Marshal encodes the envelope for publishing.
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// DecodePayload unmarshals the payload into v.
func (e *Event) DecodePayload(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%w: %s has no payload", ErrMalformedEvent, e.RoutingKey)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("invalid %s payload: %w", e.RoutingKey, err)
	}
	return nil
}
