package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/cyclist/adapter/cli"
	"github.com/felixgeelhaar/cyclist/adapter/cli/cycle"
	"github.com/felixgeelhaar/cyclist/adapter/cli/events"
	"github.com/felixgeelhaar/cyclist/adapter/cli/forecast"
	"github.com/felixgeelhaar/cyclist/adapter/cli/journal"
	"github.com/felixgeelhaar/cyclist/adapter/cli/profile"
	"github.com/felixgeelhaar/cyclist/adapter/cli/reminders"
	"github.com/felixgeelhaar/cyclist/internal/app"
	"github.com/felixgeelhaar/cyclist/pkg/config"
	"github.com/felixgeelhaar/cyclist/pkg/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		observability.LoggerFor("development", "info").Error("failed to load config", observability.ErrorKey, err)
		os.Exit(1)
	}

	// CLI output goes to stdout, so keep the logger quiet unless asked
	level := cfg.LogLevel
	if os.Getenv("LOG_LEVEL") == "" {
		level = "warn"
	}
	logger := observability.LoggerFor(cfg.AppEnv, level)
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	switch {
	case err == nil:
		defer container.Close()
		cliApp, err := newApp(container, cfg, logger)
		if err != nil {
			logger.Error("invalid CYCLIST_USER_ID", observability.ErrorKey, err)
			os.Exit(1)
		}
		cli.SetApp(cliApp)
	case cfg.IsDevelopment():
		// version still works without storage
		logger.Warn("failed to initialize container, running in limited mode", observability.ErrorKey, err)
	default:
		logger.Error("failed to initialize container", observability.ErrorKey, err)
		os.Exit(1)
	}

	cli.AddCommand(cycle.Cmd)
	cli.AddCommand(forecast.Cmd)
	cli.AddCommand(reminders.Cmd)
	cli.AddCommand(profile.Cmd)
	cli.AddCommand(journal.Cmd)
	cli.AddCommand(events.Cmd)

	cli.ExecuteContext(ctx)
}

// newApp hands the container's handlers to the CLI, acting as the
// configured user.
func newApp(c *app.Container, cfg *config.Config, logger *slog.Logger) (*cli.App, error) {
	userID, err := uuid.Parse(cfg.UserID)
	if err != nil {
		return nil, err
	}

	a := cli.NewApp(
		c.LogCycleHandler,
		c.DeleteCycleHandler,
		c.ListCyclesHandler,
		c.GetForecastHandler,
		c.ReplaceRulesHandler,
		c.ListRulesHandler,
		c.UpdateProfileHandler,
		c.GetProfileHandler,
		c.UserRepo,
	)
	a.SetJournalHandlers(
		c.RecordEntryHandler,
		c.EditEntryHandler,
		c.DeleteEntryHandler,
		c.ListEntriesHandler,
	)
	a.Logger = logger
	a.SetCurrentUserID(userID)
	a.SetLocation(c.Location)
	a.SetHealthRegistry(c.Health)
	if c.Bus == nil {
		a.SetEventBroker(cfg.RabbitMQURL)
	}
	return a, nil
}
