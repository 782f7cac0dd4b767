// Package clitest builds a CLI app backed by a throwaway SQLite database.
package clitest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/cyclist/adapter/cli"
	internalApp "github.com/felixgeelhaar/cyclist/internal/app"
	"github.com/felixgeelhaar/cyclist/pkg/config"
)

// UserID is the current user of apps built by NewApp.
var UserID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// NewApp wires a full container on a temporary SQLite file, installs the
// resulting app as the global CLI app and removes it when the test ends.
func NewApp(t *testing.T) (*cli.App, *internalApp.Container) {
	t.Helper()

	cfg := &config.Config{
		AppEnv:           "test",
		LogLevel:         "error",
		UserID:           UserID.String(),
		SQLitePath:       filepath.Join(t.TempDir(), "cli.db"),
		ReminderInterval: time.Minute,
		ReminderTimezone: "UTC",
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))

	container, err := internalApp.NewContainer(context.Background(), cfg, logger)
	require.NoError(t, err)

	app := FromContainer(container)
	app.SetCurrentUserID(UserID)
	require.NoError(t, app.EnsureCurrentUser(context.Background()))

	cli.SetApp(app)
	t.Cleanup(func() {
		cli.SetApp(nil)
		container.Close()
	})

	return app, container
}

// FromContainer builds a CLI app from a container.
func FromContainer(c *internalApp.Container) *cli.App {
	app := cli.NewApp(
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
	app.SetJournalHandlers(c.RecordEntryHandler, c.EditEntryHandler, c.DeleteEntryHandler, c.ListEntriesHandler)
	app.Logger = c.Logger
	app.SetLocation(c.Location)
	app.SetHealthRegistry(c.Health)
	if c.Bus == nil {
		app.SetEventBroker(c.Config.RabbitMQURL)
	}
	return app
}
