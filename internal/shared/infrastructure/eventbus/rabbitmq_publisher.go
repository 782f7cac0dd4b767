package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/felixgeelhaar/cyclist/pkg/observability"
)

// appID identifies this service as the publisher.
const appID = "cyclist"

var (
	// ErrPublisherClosed is returned by Publish after Close.
	ErrPublisherClosed = errors.New("publisher closed")
	// ErrNotConfirmed is returned when the broker nacks a publish.
	ErrNotConfirmed = errors.New("publish not confirmed by broker")
)

// RabbitMQPublisher publishes events to RabbitMQ on a channel in confirm
// mode. Publish returns once the broker has taken responsibility for the
// message, so the outbox only marks what actually arrived.
type RabbitMQPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *slog.Logger
	mu       sync.Mutex
	closed   bool
}

// NewRabbitMQPublisher connects to url and declares the durable topic exchange.
func NewRabbitMQPublisher(url string, logger *slog.Logger) (*RabbitMQPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, ch, err := dial(url, ExchangeName)
	if err != nil {
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	logger.Info("RabbitMQ publisher connected", "exchange", ExchangeName)

	return &RabbitMQPublisher{
		conn:     conn,
		channel:  ch,
		exchange: ExchangeName,
		logger:   logger,
	}, nil
}

// Publish sends payload to the exchange as a persistent JSON message and
// waits for the broker's confirmation.
func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPublisherClosed
	}

	confirm, err := p.channel.PublishWithDeferredConfirmWithContext(ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		publishing(ctx, routingKey, payload, time.Now()),
	)
	if err == nil {
		var acked bool
		acked, err = confirm.WaitContext(ctx)
		if err == nil && !acked {
			err = ErrNotConfirmed
		}
	}
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to publish message",
			"routing_key", routingKey,
			observability.ErrorKey, err,
		)
		return err
	}

	p.logger.DebugContext(ctx, "message published",
		"routing_key", routingKey,
		"size", len(payload),
	)
	return nil
}

// publishing builds the AMQP message for payload. The correlation and user
// ids on ctx travel as message properties so consumers can scope their logs
// without decoding the body.
func publishing(ctx context.Context, routingKey string, payload []byte, now time.Time) amqp.Publishing {
	msg := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		Timestamp:     now,
		AppId:         appID,
		Type:          routingKey,
		CorrelationId: observability.CorrelationIDFromContext(ctx),
		Body:          payload,
	}
	if id, ok := observability.UserIDFromContext(ctx); ok {
		msg.Headers = amqp.Table{observability.UserIDKey: id.String()}
	}
	return msg
}

// Ping reports whether the broker connection is still open.
func (p *RabbitMQPublisher) Ping(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.conn == nil || p.conn.IsClosed() {
		return errors.New("rabbitmq connection closed")
	}
	return nil
}

// Close closes the publisher connection. Later publishes fail.
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Warn("error closing channel", observability.ErrorKey, err)
		}
	}

	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return err
		}
	}

	p.logger.Info("RabbitMQ publisher closed")
	return nil
}

// dial opens a channel and declares the durable topic exchange events flow
// through. Nothing is left open on error.
func dial(url, exchange string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return conn, ch, nil
}

// NoopPublisher discards events. Used when no broker is configured.
type NoopPublisher struct {
	logger *slog.Logger
}

// NewNoopPublisher creates a publisher that does nothing.
func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopPublisher{logger: logger}
}

// Publish logs the routing key and drops the payload.
func (p *NoopPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.logger.DebugContext(ctx, "noop publish",
		"routing_key", routingKey,
		"size", len(payload),
	)
	return nil
}

// Close is a no-op.
func (p *NoopPublisher) Close() error {
	return nil
}
