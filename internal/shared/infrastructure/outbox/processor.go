package outbox

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/cyclist/internal/shared/domain"
	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/cyclist/pkg/observability"
)

// ProcessorConfig holds configuration for the outbox processor.
type ProcessorConfig struct {
	PollInterval time.Duration
	BatchSize    int
	// MaxRetries counts publish attempts; the last failed attempt dead-letters.
	MaxRetries       int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration
	// RetentionDays keeps published messages this long. Zero disables cleanup.
	RetentionDays   int
	CleanupInterval time.Duration
}

// DefaultProcessorConfig returns the default configuration.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:     time.Second,
		BatchSize:        100,
		MaxRetries:       5,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
		RetentionDays:    7,
		CleanupInterval:  time.Hour,
	}
}

func (c ProcessorConfig) withDefaults() ProcessorConfig {
	d := DefaultProcessorConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.RetryBackoffBase <= 0 {
		c.RetryBackoffBase = d.RetryBackoffBase
	}
	if c.RetryBackoffMax <= 0 {
		c.RetryBackoffMax = d.RetryBackoffMax
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = d.CleanupInterval
	}
	return c
}

type outcome int

const (
	published outcome = iota
	retrying
	deadLettered
	unmarked
)

// Processor relays recorded cycle, journal and reminder events to the
// event bus and prunes what it has published.
type Processor struct {
	repo      Repository
	publisher eventbus.Publisher
	config    ProcessorConfig
	logger    *slog.Logger
	metrics   observability.Metrics
	now       func() time.Time

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}

	published atomic.Uint64
	failed    atomic.Uint64
	dead      atomic.Uint64
	pruned    atomic.Uint64

	statsMu sync.Mutex
	last    Stats
}

// NewProcessor creates a new outbox processor.
func NewProcessor(repo Repository, publisher eventbus.Publisher, config ProcessorConfig, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		repo:      repo,
		publisher: publisher,
		config:    config.withDefaults(),
		logger:    logger,
		metrics:   observability.NoopMetrics{},
		now:       time.Now,
	}
}

// WithMetrics sets the metrics sink.
func (p *Processor) WithMetrics(metrics observability.Metrics) *Processor {
	if metrics != nil {
		p.metrics = metrics
	}
	return p
}

// WithClock replaces the time source used for retry scheduling.
func (p *Processor) WithClock(now func() time.Time) *Processor {
	if now != nil {
		p.now = now
	}
	return p
}

// Start runs the relay and cleanup loops in the background until ctx is
// cancelled or Stop is called. Starting a running processor is a no-op.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil
	}
	p.running = true
	p.stop = make(chan struct{})
	p.done = make(chan struct{})

	go p.loop(ctx, p.stop, p.done)

	p.logger.Info("outbox processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize,
		"retention_days", p.config.RetentionDays,
	)
	return nil
}

// Stop halts the loops and waits for the batch in flight.
func (p *Processor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	close(p.stop)
	done := p.done
	p.mu.Unlock()

	<-done
	p.logger.Info("outbox processor stopped")
}

// IsRunning returns true if the processor is running.
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Processor) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
		close(done)
	}()

	poll := time.NewTicker(p.config.PollInterval)
	defer poll.Stop()

	var cleanup <-chan time.Time
	if p.config.RetentionDays > 0 {
		t := time.NewTicker(p.config.CleanupInterval)
		defer t.Stop()
		cleanup = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-poll.C:
			if err := p.ProcessOnce(ctx); err != nil {
				p.logger.Error("failed to process outbox batch", observability.ErrorKey, err)
			}
		case <-cleanup:
			p.Cleanup(ctx)
		}
	}
}

// ProcessOnce relays one batch of due messages, oldest first. Only a
// failure to load the batch is returned; publish failures are scheduled
// for retry or dead-lettered.
func (p *Processor) ProcessOnce(ctx context.Context) error {
	messages, err := p.repo.GetUnpublished(ctx, p.config.BatchSize)
	if err != nil {
		p.noteError(err)
		return err
	}
	p.noteBatch(messages)

	for _, msg := range messages {
		switch p.relay(ctx, msg) {
		case published:
			p.published.Add(1)
			p.metrics.Counter(observability.MetricEventsPublished, 1, observability.T("source", "outbox"))
		case retrying:
			p.failed.Add(1)
		case deadLettered:
			p.dead.Add(1)
		}
	}
	return nil
}

func (p *Processor) relay(ctx context.Context, msg *Message) outcome {
	msgCtx := scoped(ctx, msg)

	err := p.publisher.Publish(msgCtx, msg.RoutingKey, msg.Payload)
	if err == nil {
		if markErr := p.repo.MarkPublished(msgCtx, msg.ID); markErr != nil {
			p.logger.ErrorContext(msgCtx, "failed to mark outbox message published",
				"id", msg.ID, "event_id", msg.EventID, observability.ErrorKey, markErr)
			return unmarked
		}
		return published
	}

	p.noteError(err)
	p.metrics.Counter(observability.MetricEventsPublishFailures, 1, observability.T("source", "outbox"))

	attempt := msg.RetryCount + 1
	if attempt >= p.config.MaxRetries {
		p.logger.ErrorContext(msgCtx, "outbox message dead-lettered",
			"id", msg.ID, "routing_key", msg.RoutingKey, "attempts", attempt, observability.ErrorKey, err)
		if markErr := p.repo.MarkDead(msgCtx, msg.ID, err.Error()); markErr != nil {
			p.logger.ErrorContext(msgCtx, "failed to dead-letter outbox message",
				"id", msg.ID, observability.ErrorKey, markErr)
		}
		return deadLettered
	}

	next := p.now().Add(p.retryBackoff(attempt))
	p.logger.WarnContext(msgCtx, "failed to publish outbox message",
		"id", msg.ID, "routing_key", msg.RoutingKey, "attempt", attempt, "next_retry_at", next, observability.ErrorKey, err)
	if markErr := p.repo.MarkFailed(msgCtx, msg.ID, err.Error(), next); markErr != nil {
		p.logger.ErrorContext(msgCtx, "failed to schedule outbox retry",
			"id", msg.ID, observability.ErrorKey, markErr)
	}
	return retrying
}

// Cleanup deletes published messages past the retention period. Pending
// and dead-lettered messages are kept.
func (p *Processor) Cleanup(ctx context.Context) int64 {
	if p.config.RetentionDays <= 0 {
		return 0
	}
	deleted, err := p.repo.DeleteOld(ctx, p.config.RetentionDays)
	if err != nil {
		p.logger.Warn("outbox cleanup failed", observability.ErrorKey, err)
		return 0
	}
	if deleted > 0 {
		p.pruned.Add(uint64(deleted))
		p.logger.Info("outbox cleanup", "deleted", deleted)
	}
	return deleted
}

// retryBackoff doubles the base delay per attempt, capped at RetryBackoffMax.
func (p *Processor) retryBackoff(attempt int) time.Duration {
	backoff := p.config.RetryBackoffBase
	for i := 1; i < attempt && backoff < p.config.RetryBackoffMax; i++ {
		backoff *= 2
	}
	return min(backoff, p.config.RetryBackoffMax)
}

// scoped carries the recorded correlation and user ids into logs and the
// publisher.
func scoped(ctx context.Context, msg *Message) context.Context {
	envelope, err := domain.UnmarshalEvent(msg.Payload, msg.RoutingKey)
	if err != nil {
		return ctx
	}
	return eventbus.ScopeContext(ctx, envelope)
}

// Stats reports relay progress for the health endpoint.
type Stats struct {
	IsRunning       bool       `json:"running"`
	PublishedCount  uint64     `json:"published"`
	FailedCount     uint64     `json:"failed"`
	DeadCount       uint64     `json:"dead"`
	PrunedCount     uint64     `json:"pruned"`
	LagSeconds      float64    `json:"lag_seconds"`
	LastError       string     `json:"last_error,omitempty"`
	LastErrorAt     *time.Time `json:"last_error_at,omitempty"`
	LastProcessedAt *time.Time `json:"last_processed_at,omitempty"`
	OldestMessageAt *time.Time `json:"oldest_message_at,omitempty"`
}

// GetStats returns current processor statistics.
func (p *Processor) GetStats() Stats {
	p.statsMu.Lock()
	stats := p.last
	p.statsMu.Unlock()

	stats.IsRunning = p.IsRunning()
	stats.PublishedCount = p.published.Load()
	stats.FailedCount = p.failed.Load()
	stats.DeadCount = p.dead.Load()
	stats.PrunedCount = p.pruned.Load()
	return stats
}

func (p *Processor) noteError(err error) {
	now := p.now()
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	p.last.LastError = err.Error()
	p.last.LastErrorAt = &now
}

// noteBatch records the lag of the oldest message still waiting.
func (p *Processor) noteBatch(messages []*Message) {
	now := p.now()
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	p.last.LastProcessedAt = &now
	p.last.LagSeconds = 0
	p.last.OldestMessageAt = nil
	if len(messages) == 0 {
		return
	}

	oldest := messages[0].CreatedAt
	for _, msg := range messages[1:] {
		if msg.CreatedAt.Before(oldest) {
			oldest = msg.CreatedAt
		}
	}
	p.last.OldestMessageAt = &oldest
	p.last.LagSeconds = now.Sub(oldest).Seconds()
}
