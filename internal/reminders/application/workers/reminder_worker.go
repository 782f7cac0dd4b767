package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	cyclesDomain "github.com/felixgeelhaar/cyclist/internal/cycles/domain"
	"github.com/felixgeelhaar/cyclist/internal/reminders/domain"
	sharedDomain "github.com/felixgeelhaar/cyclist/internal/shared/domain"
	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/cyclist/pkg/observability"
)

// DefaultTickInterval is the cadence at which reminders are evaluated.
const DefaultTickInterval = time.Minute

// DefaultDispatchTimeout bounds a single delivery attempt.
const DefaultDispatchTimeout = 10 * time.Second

// DefaultConcurrency is how many users are processed in parallel within a tick.
const DefaultConcurrency = 8

// ErrAlreadyRunning is returned by Run when the worker has been started before.
// A worker runs at most once.
var ErrAlreadyRunning = errors.New("reminder worker already running")

// Dispatcher delivers a rendered notification.
type Dispatcher interface {
	Dispatch(ctx context.Context, n domain.Notification) error
}

// Forecaster computes a user's forecast as of now. It returns false when
// the user has no cycle history.
type Forecaster interface {
	ForecastAt(ctx context.Context, userID uuid.UUID, now time.Time) (cyclesDomain.Forecast, bool, error)
}

// ReminderWorkerConfig configures the reminder worker.
type ReminderWorkerConfig struct {
	Interval        time.Duration
	DispatchTimeout time.Duration
	Concurrency     int
	// Location is where rule times of day are interpreted.
	Location *time.Location
	// AlignToMinute delays the second tick to the next minute boundary.
	AlignToMinute bool
}

// DefaultReminderWorkerConfig returns the default configuration.
func DefaultReminderWorkerConfig() ReminderWorkerConfig {
	return ReminderWorkerConfig{
		Interval:        DefaultTickInterval,
		DispatchTimeout: DefaultDispatchTimeout,
		Concurrency:     DefaultConcurrency,
		Location:        time.Local,
		AlignToMinute:   true,
	}
}

// TickReport summarizes one tick.
type TickReport struct {
	At           time.Time
	Skipped      bool
	Rules        int
	Users        int
	UsersSkipped int
	Due          int
	Sent         int
	Failed       int
	Duplicates   int
	Duration     time.Duration
}

// TickStats accumulates tick outcomes for health reporting.
type TickStats struct {
	Running      bool          `json:"running"`
	Ticks        int64         `json:"ticks"`
	SkippedTicks int64         `json:"skipped_ticks"`
	FailedTicks  int64         `json:"failed_ticks"`
	Sent         int64         `json:"sent"`
	Failed       int64         `json:"failed"`
	Duplicates   int64         `json:"duplicates"`
	LastTickAt   time.Time     `json:"last_tick_at"`
	LastDuration time.Duration `json:"last_duration_ns"`
	LastError    string        `json:"last_error,omitempty"`
}

// ReminderWorker evaluates enabled reminder rules once per interval and
// dispatches those whose fire instant falls in the current minute.
type ReminderWorker struct {
	rules      domain.RuleRepository
	contacts   domain.ContactRepository
	forecaster Forecaster
	dispatcher Dispatcher
	config     ReminderWorkerConfig
	logger     *slog.Logger

	ledger    domain.FireLedger
	ledgerTTL time.Duration
	publisher eventbus.Publisher
	clock     sharedDomain.Clock
	metrics   observability.Metrics

	started  atomic.Bool
	running  atomic.Bool
	ticking  atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	inflight sync.WaitGroup

	statsMu sync.Mutex
	stats   TickStats
}

// NewReminderWorker creates a new reminder worker.
func NewReminderWorker(
	rules domain.RuleRepository,
	contacts domain.ContactRepository,
	forecaster Forecaster,
	dispatcher Dispatcher,
	config ReminderWorkerConfig,
	logger *slog.Logger,
) *ReminderWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Interval <= 0 {
		config.Interval = DefaultTickInterval
	}
	if config.DispatchTimeout <= 0 {
		config.DispatchTimeout = DefaultDispatchTimeout
	}
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	return &ReminderWorker{
		rules:      rules,
		contacts:   contacts,
		forecaster: forecaster,
		dispatcher: dispatcher,
		config:     config,
		logger:     logger,
		clock:      sharedDomain.SystemClock{},
		metrics:    observability.NoopMetrics{},
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// WithLedger enables duplicate suppression. Claims expire after ttl.
func (w *ReminderWorker) WithLedger(ledger domain.FireLedger, ttl time.Duration) *ReminderWorker {
	w.ledger = ledger
	w.ledgerTTL = ttl
	return w
}

// WithPublisher publishes a NotificationSent event after each delivery.
func (w *ReminderWorker) WithPublisher(publisher eventbus.Publisher) *ReminderWorker {
	w.publisher = publisher
	return w
}

// WithClock replaces the wall clock.
func (w *ReminderWorker) WithClock(clock sharedDomain.Clock) *ReminderWorker {
	if clock != nil {
		w.clock = clock
	}
	return w
}

// WithMetrics records tick metrics.
func (w *ReminderWorker) WithMetrics(metrics observability.Metrics) *ReminderWorker {
	if metrics != nil {
		w.metrics = metrics
	}
	return w
}

// Run starts the worker and blocks until ctx is cancelled or Stop is called.
// A tick in flight when the worker stops is allowed to finish.
func (w *ReminderWorker) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	w.running.Store(true)
	defer close(w.done)
	defer w.running.Store(false)
	defer w.inflight.Wait()

	w.logger.Info("reminder worker started",
		"interval", w.config.Interval,
		"concurrency", w.config.Concurrency,
		"location", w.config.Location.String(),
		"dedup", w.ledger != nil,
	)

	// Ticks outlive cancellation of ctx so shutdown never cuts a delivery short.
	tickCtx := context.WithoutCancel(ctx)

	w.startTick(tickCtx)

	if w.config.AlignToMinute {
		align := time.NewTimer(untilNextMinute(w.clock.Now()))
		select {
		case <-ctx.Done():
			align.Stop()
			w.logger.Info("reminder worker stopped (context cancelled)")
			return ctx.Err()
		case <-w.stopCh:
			align.Stop()
			w.logger.Info("reminder worker stopped (stop signal)")
			return nil
		case <-align.C:
			w.startTick(tickCtx)
		}
	}

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reminder worker stopped (context cancelled)")
			return ctx.Err()
		case <-w.stopCh:
			w.logger.Info("reminder worker stopped (stop signal)")
			return nil
		case <-ticker.C:
			w.startTick(tickCtx)
		}
	}
}

// Stop signals the worker to stop and waits for an in-flight tick.
func (w *ReminderWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	if w.running.Load() {
		<-w.done
	}
}

// IsRunning returns true if the worker is currently running.
func (w *ReminderWorker) IsRunning() bool {
	return w.running.Load()
}

// Stats returns a snapshot of the accumulated tick statistics.
func (w *ReminderWorker) Stats() TickStats {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	s := w.stats
	s.Running = w.running.Load()
	return s
}

// startTick runs a tick in the background unless one is still in flight.
func (w *ReminderWorker) startTick(ctx context.Context) {
	if !w.ticking.CompareAndSwap(false, true) {
		w.skipTick()
		return
	}
	w.inflight.Add(1)
	go func() {
		defer w.inflight.Done()
		defer w.ticking.Store(false)
		if _, err := w.tick(ctx); err != nil {
			w.logger.Error("reminder tick failed", observability.ErrorKey, err)
		}
	}()
}

// Tick evaluates all enabled rules once. It is skipped, not queued, when
// another tick is still running. The returned error is a tick failure:
// the rules could not be loaded and nothing was evaluated.
func (w *ReminderWorker) Tick(ctx context.Context) (TickReport, error) {
	if !w.ticking.CompareAndSwap(false, true) {
		w.skipTick()
		return TickReport{At: w.clock.Now(), Skipped: true}, nil
	}
	defer w.ticking.Store(false)
	return w.tick(ctx)
}

func (w *ReminderWorker) skipTick() {
	w.logger.Warn("previous reminder tick still running, skipping")
	w.metrics.Counter(observability.MetricReminderTicksSkipped, 1)
	w.statsMu.Lock()
	w.stats.SkippedTicks++
	w.statsMu.Unlock()
}

// userRules is one user's share of the enabled rules.
type userRules struct {
	userID uuid.UUID
	rules  []*domain.Rule
}

// tickCounters aggregates per-user outcomes across goroutines.
type tickCounters struct {
	usersSkipped atomic.Int64
	due          atomic.Int64
	sent         atomic.Int64
	failed       atomic.Int64
	duplicates   atomic.Int64
}

func (w *ReminderWorker) tick(ctx context.Context) (TickReport, error) {
	now := w.clock.Now().In(w.config.Location)
	started := time.Now()
	ctx = observability.WithCorrelationID(ctx, "")
	logger := observability.LogOperation(w.logger, "reminder_tick",
		observability.CorrelationIDKey, observability.CorrelationIDFromContext(ctx),
		"tick_at", now.Format("2006-01-02T15:04"),
	)

	report := TickReport{At: now}

	rules, err := w.rules.FindEnabled(ctx)
	if err != nil {
		report.Duration = time.Since(started)
		w.recordTick(report, err)
		w.metrics.Counter(observability.MetricReminderTickFailures, 1)
		return report, fmt.Errorf("failed to load enabled reminder rules: %w", err)
	}

	report.Rules = len(rules)
	if len(rules) == 0 {
		logger.Debug("no enabled reminder rules")
		report.Duration = time.Since(started)
		w.recordTick(report, nil)
		return report, nil
	}

	groups := groupByUser(rules)
	report.Users = len(groups)

	var counters tickCounters
	var g errgroup.Group
	g.SetLimit(w.config.Concurrency)
	for _, group := range groups {
		g.Go(func() error {
			w.processUser(ctx, logger, now, group, &counters)
			return nil
		})
	}
	_ = g.Wait()

	report.UsersSkipped = int(counters.usersSkipped.Load())
	report.Due = int(counters.due.Load())
	report.Sent = int(counters.sent.Load())
	report.Failed = int(counters.failed.Load())
	report.Duplicates = int(counters.duplicates.Load())
	report.Duration = time.Since(started)

	w.recordTick(report, nil)

	if report.Due > 0 {
		logger.Info("reminder tick completed",
			"rules", report.Rules,
			"users", report.Users,
			"sent", report.Sent,
			"failed", report.Failed,
			"duplicates", report.Duplicates,
			"duration_ms", report.Duration.Milliseconds(),
		)
	} else {
		logger.Debug("reminder tick completed", "rules", report.Rules, "users", report.Users)
	}

	return report, nil
}

// processUser evaluates one user's rules. Lookup and delivery failures are
// logged and counted; they never abort the tick.
func (w *ReminderWorker) processUser(ctx context.Context, logger *slog.Logger, now time.Time, group userRules, counters *tickCounters) {
	ctx = observability.WithUserID(ctx, group.userID)
	logger = logger.With(observability.UserIDKey, group.userID)

	contact, err := w.contacts.FindContact(ctx, group.userID)
	if err != nil {
		logger.Warn("failed to load reminder contact, skipping user", observability.ErrorKey, err)
		w.skipUser(counters)
		return
	}
	if contact == nil || contact.Email == "" {
		logger.Debug("user has no email address, skipping")
		w.skipUser(counters)
		return
	}

	forecast, ok, err := w.forecaster.ForecastAt(ctx, group.userID, now)
	if err != nil {
		logger.Warn("failed to compute forecast, skipping user", observability.ErrorKey, err)
		w.skipUser(counters)
		return
	}
	if !ok {
		logger.Debug("no cycle history yet, skipping user")
		w.skipUser(counters)
		return
	}

	for _, rule := range group.rules {
		eventDate, ok := rule.EventDate(forecast)
		if !ok {
			logger.Debug("reminder rule has unknown type", observability.RuleIDKey, rule.ID(), "type", rule.Type())
			continue
		}

		fireAt := rule.FireAt(eventDate, w.config.Location)
		if !domain.SameMinute(now, fireAt, w.config.Location) {
			continue
		}
		counters.due.Add(1)
		ruleCtx := observability.WithRuleID(ctx, rule.ID())

		if w.ledger != nil {
			key := domain.FireKey(group.userID, rule.ID(), rule.Type(), eventDate)
			claimed, err := w.ledger.Claim(ruleCtx, key, w.ledgerTTL)
			switch {
			case err != nil:
				logger.Warn("fire ledger unavailable, sending without dedup", observability.RuleIDKey, rule.ID(), observability.ErrorKey, err)
			case !claimed:
				logger.Info("reminder already sent, skipping duplicate", observability.RuleIDKey, rule.ID())
				counters.duplicates.Add(1)
				w.metrics.Counter(observability.MetricReminderDuplicates, 1)
				continue
			}
		}

		notification := domain.NewNotification(*contact, rule.Type(), eventDate)
		if err := w.dispatch(ruleCtx, notification); err != nil {
			logger.Error("failed to send reminder",
				observability.RuleIDKey, rule.ID(),
				"type", rule.Type(),
				observability.ErrorKey, err,
			)
			counters.failed.Add(1)
			w.metrics.Counter(observability.MetricReminderFailed, 1, observability.T("type", string(rule.Type())))
			continue
		}

		counters.sent.Add(1)
		w.metrics.Counter(observability.MetricReminderSent, 1, observability.T("type", string(rule.Type())))
		logger.Info("reminder sent",
			observability.RuleIDKey, rule.ID(),
			"type", rule.Type(),
			"event_date", sharedDomain.FormatDate(eventDate),
		)

		w.publishSent(ruleCtx, logger, rule, eventDate, fireAt)
	}
}

func (w *ReminderWorker) dispatch(ctx context.Context, n domain.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, w.config.DispatchTimeout)
	defer cancel()
	return w.dispatcher.Dispatch(ctx, n)
}

func (w *ReminderWorker) skipUser(counters *tickCounters) {
	counters.usersSkipped.Add(1)
	w.metrics.Counter(observability.MetricReminderUsersSkipped, 1)
}

func (w *ReminderWorker) publishSent(ctx context.Context, logger *slog.Logger, rule *domain.Rule, eventDate, fireAt time.Time) {
	if w.publisher == nil {
		return
	}

	event, err := sharedDomain.NewEvent(rule.ID(), domain.AggregateTypeRule, domain.RoutingKeyNotificationSent, w.clock.Now(),
		domain.NotificationSent{
			RuleID:    rule.ID(),
			UserID:    rule.UserID(),
			Type:      rule.Type(),
			Method:    rule.Method(),
			EventDate: sharedDomain.FormatDate(eventDate),
			FireAt:    fireAt.Format(time.RFC3339),
		})
	if err == nil {
		event.Metadata.UserID = rule.UserID()
		err = eventbus.PublishEvent(ctx, w.publisher, &event)
	}
	if err != nil {
		logger.Warn("failed to publish reminder event", observability.RuleIDKey, rule.ID(), observability.ErrorKey, err)
		w.metrics.Counter(observability.MetricEventsPublishFailures, 1)
		return
	}
	w.metrics.Counter(observability.MetricEventsPublished, 1)
}

func (w *ReminderWorker) recordTick(report TickReport, err error) {
	w.metrics.Counter(observability.MetricReminderTicks, 1)
	w.metrics.Timing(observability.MetricReminderTickDuration, report.Duration)

	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.Ticks++
	w.stats.Sent += int64(report.Sent)
	w.stats.Failed += int64(report.Failed)
	w.stats.Duplicates += int64(report.Duplicates)
	w.stats.LastTickAt = report.At
	w.stats.LastDuration = report.Duration
	if err != nil {
		w.stats.FailedTicks++
		w.stats.LastError = err.Error()
	} else {
		w.stats.LastError = ""
	}
}

// groupByUser partitions rules by owner, keeping first-seen order.
func groupByUser(rules []*domain.Rule) []userRules {
	index := make(map[uuid.UUID]int)
	var groups []userRules
	for _, rule := range rules {
		i, ok := index[rule.UserID()]
		if !ok {
			i = len(groups)
			index[rule.UserID()] = i
			groups = append(groups, userRules{userID: rule.UserID()})
		}
		groups[i].rules = append(groups[i].rules, rule)
	}
	return groups
}

// untilNextMinute returns the wait until the next whole minute after now.
func untilNextMinute(now time.Time) time.Duration {
	next := now.Truncate(time.Minute).Add(time.Minute)
	return next.Sub(now)
}
