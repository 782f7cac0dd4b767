package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/felixgeelhaar/cyclist/internal/shared/domain"
	"github.com/felixgeelhaar/cyclist/pkg/observability"
)

var (
	// ErrConsumerRunning is returned by Start when the consumer is already consuming.
	ErrConsumerRunning = errors.New("consumer already running")
	// ErrDeliveriesClosed is returned by Start when the broker stops delivering.
	ErrDeliveriesClosed = errors.New("delivery channel closed")
)

// DefaultPrefetch is how many unacked deliveries the broker hands out at once.
const DefaultPrefetch = 1

// RabbitMQConsumerConfig configures the RabbitMQ consumer.
type RabbitMQConsumerConfig struct {
	URL string
	// QueueName names a durable queue. Empty declares a server-named,
	// exclusive queue that is deleted when the consumer disconnects.
	QueueName string
	Exchange  string
	// Prefetch defaults to DefaultPrefetch.
	Prefetch int
	Logger   *slog.Logger
}

func (cfg RabbitMQConsumerConfig) withDefaults() RabbitMQConsumerConfig {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Exchange == "" {
		cfg.Exchange = ExchangeName
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = DefaultPrefetch
	}
	return cfg
}

// RabbitMQConsumer reads one queue bound to the event exchange and hands
// each delivery to the consumers registered for its routing key.
type RabbitMQConsumer struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	queue     string
	exchange  string
	prefetch  int
	registry  *ConsumerRegistry
	logger    *slog.Logger
	mu        sync.Mutex
	running   bool
	closeOnce sync.Once
	closeChan chan struct{}
}

// NewRabbitMQConsumer connects and declares the exchange and queue. A nil
// registry gets a fresh one.
func NewRabbitMQConsumer(cfg RabbitMQConsumerConfig, registry *ConsumerRegistry) (*RabbitMQConsumer, error) {
	cfg = cfg.withDefaults()
	if registry == nil {
		registry = NewConsumerRegistry(cfg.Logger)
	}

	conn, ch, err := dial(cfg.URL, cfg.Exchange)
	if err != nil {
		return nil, err
	}

	temporary := cfg.QueueName == ""
	queue, err := ch.QueueDeclare(
		cfg.QueueName,
		!temporary, // durable
		temporary,  // auto-delete
		temporary,  // exclusive
		false,      // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	cfg.Logger.Info("RabbitMQ consumer connected",
		"queue", queue.Name,
		"exchange", cfg.Exchange,
		"prefetch", cfg.Prefetch,
	)

	return &RabbitMQConsumer{
		conn:      conn,
		channel:   ch,
		queue:     queue.Name,
		exchange:  cfg.Exchange,
		prefetch:  cfg.Prefetch,
		registry:  registry,
		logger:    cfg.Logger,
		closeChan: make(chan struct{}),
	}, nil
}

// RegisterConsumer registers consumer and binds the queue to each of its
// routing-key patterns. The broker applies the same topic rules as the
// registry, so a binding failure only costs that pattern.
func (c *RabbitMQConsumer) RegisterConsumer(consumer EventConsumer) {
	c.registry.Register(consumer)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, pattern := range consumer.EventTypes() {
		if err := c.channel.QueueBind(c.queue, pattern, c.exchange, false, nil); err != nil {
			c.logger.Error("failed to bind queue",
				"queue", c.queue,
				"pattern", pattern,
				observability.ErrorKey, err,
			)
			continue
		}
		c.logger.Debug("queue bound", "queue", c.queue, "pattern", pattern)
	}
}

// Start consumes until ctx is cancelled, Close is called or the broker
// connection drops. Deliveries are acked after a successful dispatch; a
// failed first delivery is requeued once and then dropped.
func (c *RabbitMQConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrConsumerRunning
	}
	c.running = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	if err := c.channel.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := c.channel.Consume(
		c.queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	connClosed := c.conn.NotifyClose(make(chan *amqp.Error, 1))

	c.logger.Info("consuming events", "queue", c.queue)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consumer stopping", "reason", ctx.Err())
			return ctx.Err()

		case <-c.closeChan:
			c.logger.Info("consumer stopping", "reason", "closed")
			return nil

		case amqpErr, ok := <-connClosed:
			if c.closing() {
				return nil
			}
			if ok && amqpErr != nil {
				return fmt.Errorf("rabbitmq connection lost: %w", amqpErr)
			}
			return ErrDeliveriesClosed

		case msg, ok := <-deliveries:
			if !ok {
				if c.closing() {
					return nil
				}
				return ErrDeliveriesClosed
			}
			c.handleDelivery(ctx, msg)
		}
	}
}

func (c *RabbitMQConsumer) handleDelivery(ctx context.Context, msg amqp.Delivery) {
	if msg.CorrelationId != "" {
		ctx = observability.WithCorrelationID(ctx, msg.CorrelationId)
	}
	if err := c.processMessage(ctx, msg.RoutingKey, msg.Body); err != nil {
		requeue := !msg.Redelivered
		c.logger.ErrorContext(ctx, "failed to process message",
			"routing_key", msg.RoutingKey,
			"requeue", requeue,
			observability.ErrorKey, err,
		)
		if nackErr := msg.Nack(false, requeue); nackErr != nil {
			c.logger.ErrorContext(ctx, "failed to nack message", observability.ErrorKey, nackErr)
		}
		return
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		c.logger.ErrorContext(ctx, "failed to ack message", observability.ErrorKey, ackErr)
	}
}

// processMessage decodes body and dispatches it. Undecodable bodies are
// dropped with a log line; only consumer failures are returned.
func (c *RabbitMQConsumer) processMessage(ctx context.Context, routingKey string, body []byte) error {
	event, err := domain.UnmarshalEvent(body, routingKey)
	if err != nil {
		c.logger.ErrorContext(ctx, "dropping event", "routing_key", routingKey, observability.ErrorKey, err)
		return nil
	}
	ctx = ScopeContext(ctx, event)

	start := time.Now()
	if err := c.registry.Dispatch(ctx, event); err != nil {
		return err
	}

	c.logger.DebugContext(ctx, "event processed",
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		observability.DurationKey, time.Since(start).Milliseconds(),
	)
	return nil
}

func (c *RabbitMQConsumer) closing() bool {
	select {
	case <-c.closeChan:
		return true
	default:
		return false
	}
}

// Close stops Start and closes the connection.
func (c *RabbitMQConsumer) Close() error {
	c.closeOnce.Do(func() { close(c.closeChan) })

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Warn("error closing channel", observability.ErrorKey, err)
		}
	}
	if c.conn != nil && !c.conn.IsClosed() {
		if err := c.conn.Close(); err != nil {
			return err
		}
	}

	c.logger.Info("RabbitMQ consumer closed")
	return nil
}
