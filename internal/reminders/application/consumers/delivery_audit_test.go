package consumers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/cyclist/internal/reminders/domain"
	sharedDomain "github.com/felixgeelhaar/cyclist/internal/shared/domain"
	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/cyclist/pkg/observability"
)

func sentEvent(t *testing.T, eventDate string) *sharedDomain.Event {
	t.Helper()
	ruleID := uuid.New()
	event, err := sharedDomain.NewEvent(ruleID, domain.AggregateTypeRule, domain.RoutingKeyNotificationSent, time.Now(),
		domain.NotificationSent{
			RuleID:    ruleID,
			UserID:    uuid.New(),
			Type:      domain.EventPeriod,
			Method:    domain.MethodEmail,
			EventDate: eventDate,
		})
	require.NoError(t, err)
	return &event
}

func TestDeliveryAuditConsumer_Handle(t *testing.T) {
	metrics := observability.NewInMemoryMetrics()
	c := NewDeliveryAuditConsumer(0, slog.New(slog.NewTextHandler(io.Discard, nil)), metrics)

	require.NoError(t, c.Handle(context.Background(), sentEvent(t, "2024-04-29")))

	recent := c.Recent()
	require.Len(t, recent, 1)
	assert.Equal(t, "2024-04-29", recent[0].EventDate)
	assert.Equal(t, domain.EventPeriod, recent[0].Type)
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricDeliveriesAudited, observability.T("type", "period")))
}

func TestDeliveryAuditConsumer_KeepsMostRecent(t *testing.T) {
	c := NewDeliveryAuditConsumer(2, nil, nil)

	for day := 1; day <= 3; day++ {
		require.NoError(t, c.Handle(context.Background(), sentEvent(t, fmt.Sprintf("2024-05-0%d", day))))
	}

	recent := c.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, "2024-05-02", recent[0].EventDate)
	assert.Equal(t, "2024-05-03", recent[1].EventDate)
}

func TestDeliveryAuditConsumer_RejectsMalformedPayload(t *testing.T) {
	c := NewDeliveryAuditConsumer(0, nil, nil)
	event := &sharedDomain.Event{RoutingKey: domain.RoutingKeyNotificationSent, Payload: []byte(`"nope"`)}

	assert.Error(t, c.Handle(context.Background(), event))
	assert.Empty(t, c.Recent())
}

func TestDeliveryAuditConsumer_ThroughInProcessBus(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
	c := NewDeliveryAuditConsumer(0, nil, nil)
	bus.RegisterConsumer(c)

	payload, err := sentEvent(t, "2024-06-10").Marshal()
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), domain.RoutingKeyNotificationSent, payload))

	require.Len(t, c.Recent(), 1)
	assert.Equal(t, "2024-06-10", c.Recent()[0].EventDate)
}

func TestDeliveryAuditConsumer_LogsScopedRule(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewLogger(observability.LogConfig{
		Level:  observability.LogLevelInfo,
		Format: observability.LogFormatJSON,
		Output: &buf,
	})
	c := NewDeliveryAuditConsumer(0, logger, nil)
	event := sentEvent(t, "2024-07-01")
	ctx := observability.WithCorrelationID(context.Background(), "tick-7")

	require.NoError(t, c.Handle(ctx, event))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "tick-7", record[observability.CorrelationIDKey])
	assert.Equal(t, event.AggregateID.String(), record[observability.RuleIDKey])
}
