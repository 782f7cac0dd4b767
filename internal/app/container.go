// Package app wires cyclist's dependencies for the CLI and the worker.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	cycleCommands "github.com/felixgeelhaar/cyclist/internal/cycles/application/commands"
	cycleQueries "github.com/felixgeelhaar/cyclist/internal/cycles/application/queries"
	cyclesDomain "github.com/felixgeelhaar/cyclist/internal/cycles/domain"
	cyclesPersistence "github.com/felixgeelhaar/cyclist/internal/cycles/infrastructure/persistence"
	identityCommands "github.com/felixgeelhaar/cyclist/internal/identity/application/commands"
	identityQueries "github.com/felixgeelhaar/cyclist/internal/identity/application/queries"
	identityPersistence "github.com/felixgeelhaar/cyclist/internal/identity/infrastructure/persistence"
	journalCommands "github.com/felixgeelhaar/cyclist/internal/journal/application/commands"
	journalQueries "github.com/felixgeelhaar/cyclist/internal/journal/application/queries"
	journalPersistence "github.com/felixgeelhaar/cyclist/internal/journal/infrastructure/persistence"
	reminderCommands "github.com/felixgeelhaar/cyclist/internal/reminders/application/commands"
	"github.com/felixgeelhaar/cyclist/internal/reminders/application/consumers"
	reminderQueries "github.com/felixgeelhaar/cyclist/internal/reminders/application/queries"
	"github.com/felixgeelhaar/cyclist/internal/reminders/application/workers"
	remindersDomain "github.com/felixgeelhaar/cyclist/internal/reminders/domain"
	"github.com/felixgeelhaar/cyclist/internal/reminders/infrastructure/ledger"
	"github.com/felixgeelhaar/cyclist/internal/reminders/infrastructure/mail"
	remindersPersistence "github.com/felixgeelhaar/cyclist/internal/reminders/infrastructure/persistence"
	sharedDomain "github.com/felixgeelhaar/cyclist/internal/shared/domain"
	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/crypto"
	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/database/postgres"
	_ "github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/cyclist/pkg/config"
	"github.com/felixgeelhaar/cyclist/pkg/observability"
)

// AuditQueueName is the durable queue the delivery audit consumes from.
const AuditQueueName = "cyclist.reminders.audit"

// Container holds all application dependencies.
type Container struct {
	Config   *config.Config
	Logger   *slog.Logger
	Location *time.Location
	Clock    sharedDomain.Clock
	Metrics  *observability.InMemoryMetrics
	Health   *observability.HealthRegistry

	// Infrastructure
	DBConn      database.Connection
	UnitOfWork  database.UnitOfWork
	RedisClient *redis.Client
	Publisher   eventbus.Publisher
	// Bus is set when events are delivered in process instead of through RabbitMQ.
	Bus *eventbus.InProcessEventBus
	// OutboxRepo stores events written by command handlers; the
	// OutboxProcessor relays them to Publisher.
	OutboxRepo      *outbox.SQLRepository
	OutboxProcessor *outbox.Processor

	// Repositories
	UserRepo    *identityPersistence.UserRepository
	CycleRepo   *cyclesPersistence.CycleRepository
	RuleRepo    *remindersPersistence.RuleRepository
	ContactRepo *remindersPersistence.ContactRepository
	JournalRepo *journalPersistence.EntryRepository

	// Cycles
	Predictor          *cyclesDomain.Predictor
	LogCycleHandler    *cycleCommands.LogCycleHandler
	DeleteCycleHandler *cycleCommands.DeleteCycleHandler
	ListCyclesHandler  *cycleQueries.ListCyclesHandler
	GetForecastHandler *cycleQueries.GetForecastHandler

	// Identity
	UpdateProfileHandler *identityCommands.UpdateProfileHandler
	GetProfileHandler    *identityQueries.GetProfileHandler

	// Journal
	RecordEntryHandler *journalCommands.RecordEntryHandler
	EditEntryHandler   *journalCommands.EditEntryHandler
	DeleteEntryHandler *journalCommands.DeleteEntryHandler
	ListEntriesHandler *journalQueries.ListEntriesHandler

	// Reminders
	ReplaceRulesHandler *reminderCommands.ReplaceRulesHandler
	ListRulesHandler    *reminderQueries.ListRulesHandler
	Dispatcher          workers.Dispatcher
	Breaker             *mail.BreakerDispatcher
	Ledger              remindersDomain.FireLedger
	DeliveryAudit       *consumers.DeliveryAuditConsumer
	ReminderWorker      *workers.ReminderWorker
}

// NewContainer connects to the configured stores and wires all handlers.
// Redis and RabbitMQ are optional in development: when unreachable the
// container falls back to in-process replacements.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config:   cfg,
		Logger:   logger,
		Location: loc,
		Clock:    sharedDomain.SystemClock{},
		Metrics:  observability.NewInMemoryMetrics(),
		Health:   observability.NewHealthRegistry(),
	}

	conn, err := database.NewConnection(ctx, database.Config{
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
		MaxConns:   cfg.DatabaseMaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DBConn = conn
	logger.Info("connected to database", "driver", conn.Driver().String())

	if err := migrations.Run(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	c.Health.Register("database", observability.DatabaseHealthChecker(conn.Ping))

	if err := c.connectRedis(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.connectPublisher(); err != nil {
		c.Close()
		return nil, err
	}

	if err := c.wireHandlers(); err != nil {
		c.Close()
		return nil, err
	}

	if err := c.wireReminders(); err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}

func (c *Container) connectRedis(ctx context.Context) error {
	if c.Config.RedisURL == "" {
		return nil
	}

	opt, err := redis.ParseURL(c.Config.RedisURL)
	if err != nil {
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		c.Logger.Warn("invalid Redis URL, fire ledger will use in-memory fallback", observability.ErrorKey, err)
		return nil
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, fire ledger will use in-memory fallback", observability.ErrorKey, err)
		return nil
	}

	c.RedisClient = client
	c.Health.Register("redis", observability.RedisHealthChecker(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}))
	c.Logger.Info("connected to Redis")
	return nil
}

func (c *Container) connectPublisher() error {
	if c.Config.RabbitMQURL != "" {
		publisher, err := eventbus.NewRabbitMQPublisher(c.Config.RabbitMQURL, c.Logger)
		if err == nil {
			c.Publisher = publisher
			c.Health.Register("rabbitmq", observability.RabbitMQHealthChecker(publisher.Ping))
			return nil
		}
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		c.Logger.Warn("RabbitMQ not available, using in-process event bus", observability.ErrorKey, err)
	}

	c.Bus = eventbus.NewInProcessEventBus(c.Logger)
	c.Publisher = c.Bus
	return nil
}

func (c *Container) wireHandlers() error {
	c.UnitOfWork = database.NewUnitOfWork(c.DBConn)
	c.OutboxRepo = outbox.NewSQLRepository(c.DBConn)
	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.Publisher, outbox.ProcessorConfig{
		PollInterval:    c.Config.OutboxPollInterval,
		BatchSize:       c.Config.OutboxBatchSize,
		MaxRetries:      c.Config.OutboxMaxRetries,
		RetentionDays:   c.Config.OutboxRetentionDays,
		CleanupInterval: c.Config.OutboxCleanupInterval,
	}, c.Logger).WithMetrics(c.Metrics)

	c.UserRepo = identityPersistence.NewUserRepository(c.DBConn)
	c.JournalRepo = journalPersistence.NewEntryRepository(c.DBConn, c.Location)
	if c.Config.ProfileEncryptionKey != "" {
		cipher, err := crypto.NewAESFieldCipherFromBase64Key(c.Config.ProfileEncryptionKey)
		if err != nil {
			return fmt.Errorf("invalid PROFILE_ENCRYPTION_KEY: %w", err)
		}
		c.UserRepo.WithCipher(cipher)
		c.JournalRepo.WithCipher(cipher)
	}
	c.CycleRepo = cyclesPersistence.NewCycleRepository(c.DBConn, c.Location)
	c.RuleRepo = remindersPersistence.NewRuleRepository(c.DBConn)
	c.ContactRepo = remindersPersistence.NewContactRepository(c.UserRepo)

	c.Predictor = cyclesDomain.NewPredictor(cyclesDomain.DefaultPredictorConfig(), c.Location)
	c.LogCycleHandler = cycleCommands.NewLogCycleHandler(c.CycleRepo, c.OutboxRepo, c.UnitOfWork)
	c.DeleteCycleHandler = cycleCommands.NewDeleteCycleHandler(c.CycleRepo, c.OutboxRepo, c.UnitOfWork)
	c.ListCyclesHandler = cycleQueries.NewListCyclesHandler(c.CycleRepo)
	c.GetForecastHandler = cycleQueries.NewGetForecastHandler(c.CycleRepo, c.Predictor, c.Clock, c.Metrics)

	c.UpdateProfileHandler = identityCommands.NewUpdateProfileHandler(c.UserRepo)
	c.GetProfileHandler = identityQueries.NewGetProfileHandler(c.UserRepo)

	c.RecordEntryHandler = journalCommands.NewRecordEntryHandler(c.JournalRepo, c.OutboxRepo, c.UnitOfWork)
	c.EditEntryHandler = journalCommands.NewEditEntryHandler(c.JournalRepo, c.OutboxRepo, c.UnitOfWork)
	c.DeleteEntryHandler = journalCommands.NewDeleteEntryHandler(c.JournalRepo, c.OutboxRepo, c.UnitOfWork)
	c.ListEntriesHandler = journalQueries.NewListEntriesHandler(c.JournalRepo)

	c.ReplaceRulesHandler = reminderCommands.NewReplaceRulesHandler(c.RuleRepo, c.OutboxRepo, c.UnitOfWork)
	c.ListRulesHandler = reminderQueries.NewListRulesHandler(c.RuleRepo)
	return nil
}

func (c *Container) wireReminders() error {
	cfg := c.Config

	if cfg.SMTPConfigured() {
		smtp, err := mail.NewSMTPDispatcher(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			Secure:   cfg.SMTPSecure,
			From:     cfg.FromEmail,
			Timeout:  cfg.ReminderDispatchTimeout,
		})
		if err != nil {
			return err
		}
		c.Breaker = mail.NewBreakerDispatcher(smtp, mail.BreakerConfig{
			MaxRequests:      cfg.BreakerMaxRequests,
			Interval:         cfg.BreakerInterval,
			Timeout:          cfg.BreakerTimeout,
			FailureThreshold: cfg.BreakerFailureThreshold,
		}, c.Logger)
		c.Dispatcher = c.Breaker
		c.Health.Register("mail", c.breakerHealth)
	} else {
		c.Logger.Warn("SMTP not configured, reminders will be logged instead of sent")
		c.Dispatcher = mail.NewLogDispatcher(c.Logger)
	}

	if cfg.ReminderDedupEnabled {
		if c.RedisClient != nil {
			c.Ledger = ledger.NewRedisLedger(c.RedisClient)
		} else {
			c.Ledger = ledger.NewInMemoryLedger(c.Clock)
		}
	}

	c.DeliveryAudit = consumers.NewDeliveryAuditConsumer(consumers.DefaultAuditCapacity, c.Logger, c.Metrics)
	if c.Bus != nil {
		c.Bus.RegisterConsumer(c.DeliveryAudit)
	}

	worker := workers.NewReminderWorker(
		c.RuleRepo,
		c.ContactRepo,
		c.GetForecastHandler,
		c.Dispatcher,
		workers.ReminderWorkerConfig{
			Interval:        cfg.ReminderInterval,
			DispatchTimeout: cfg.ReminderDispatchTimeout,
			Concurrency:     cfg.ReminderConcurrency,
			Location:        c.Location,
			AlignToMinute:   true,
		},
		c.Logger,
	).
		WithPublisher(c.Publisher).
		WithClock(c.Clock).
		WithMetrics(c.Metrics)
	if c.Ledger != nil {
		worker.WithLedger(c.Ledger, cfg.ReminderDedupTTL)
	}
	c.ReminderWorker = worker

	return nil
}

func (c *Container) breakerHealth(context.Context) observability.HealthCheckResult {
	state := c.Breaker.State()
	if state == "closed" {
		return observability.HealthCheckResult{Status: observability.HealthStatusHealthy, Message: "mail relay healthy"}
	}
	return observability.HealthCheckResult{
		Status:  observability.HealthStatusDegraded,
		Message: "mail circuit breaker " + state,
	}
}

// NewEventConsumer returns the consumer the worker runs the delivery audit
// on: the in-process bus, or a RabbitMQ consumer bound to AuditQueueName.
func (c *Container) NewEventConsumer() (eventbus.Consumer, error) {
	if c.Bus != nil {
		return c.Bus, nil
	}
	consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
		URL:       c.Config.RabbitMQURL,
		QueueName: AuditQueueName,
		Logger:    c.Logger,
	}, nil)
	if err != nil {
		return nil, err
	}
	consumer.RegisterConsumer(c.DeliveryAudit)
	return consumer, nil
}

// EnsureUser creates an empty profile for userID so cycles and rules can
// reference it.
func (c *Container) EnsureUser(ctx context.Context, userID uuid.UUID) error {
	return c.UserRepo.EnsureExists(ctx, userID)
}

// CleanupOutbox removes published outbox messages past the retention
// period and returns how many were deleted.
func (c *Container) CleanupOutbox(ctx context.Context) int64 {
	return c.OutboxProcessor.Cleanup(ctx)
}

// Close releases all resources.
func (c *Container) Close() {
	if c.ReminderWorker != nil && c.ReminderWorker.IsRunning() {
		c.ReminderWorker.Stop()
		c.Logger.Info("reminder worker stopped")
	}

	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}

	if c.Publisher != nil {
		if err := c.Publisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", observability.ErrorKey, err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", observability.ErrorKey, err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database", observability.ErrorKey, err)
		}
	}
}
