package cli

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	cycleCommands "github.com/felixgeelhaar/cyclist/internal/cycles/application/commands"
	cycleQueries "github.com/felixgeelhaar/cyclist/internal/cycles/application/queries"
	identityCommands "github.com/felixgeelhaar/cyclist/internal/identity/application/commands"
	identityQueries "github.com/felixgeelhaar/cyclist/internal/identity/application/queries"
	journalCommands "github.com/felixgeelhaar/cyclist/internal/journal/application/commands"
	journalQueries "github.com/felixgeelhaar/cyclist/internal/journal/application/queries"
	reminderCommands "github.com/felixgeelhaar/cyclist/internal/reminders/application/commands"
	reminderQueries "github.com/felixgeelhaar/cyclist/internal/reminders/application/queries"
	"github.com/felixgeelhaar/cyclist/pkg/observability"
)

// UserEnsurer creates an empty profile for a user if none exists.
type UserEnsurer interface {
	EnsureExists(ctx context.Context, id uuid.UUID) error
}

// App holds the CLI application dependencies.
type App struct {
	// Cycle handlers
	LogCycleHandler    *cycleCommands.LogCycleHandler
	DeleteCycleHandler *cycleCommands.DeleteCycleHandler
	ListCyclesHandler  *cycleQueries.ListCyclesHandler
	GetForecastHandler *cycleQueries.GetForecastHandler

	// Reminder handlers
	ReplaceRulesHandler *reminderCommands.ReplaceRulesHandler
	ListRulesHandler    *reminderQueries.ListRulesHandler

	// Profile handlers
	UpdateProfileHandler *identityCommands.UpdateProfileHandler
	GetProfileHandler    *identityQueries.GetProfileHandler

	// Journal handlers
	RecordEntryHandler *journalCommands.RecordEntryHandler
	EditEntryHandler   *journalCommands.EditEntryHandler
	DeleteEntryHandler *journalCommands.DeleteEntryHandler
	ListEntriesHandler *journalQueries.ListEntriesHandler

	Users  UserEnsurer
	Health *observability.HealthRegistry
	Logger *slog.Logger

	// Location is where dates typed on the command line are interpreted.
	Location *time.Location

	// RabbitMQURL is empty when events stay in process.
	RabbitMQURL string

	// Current user (configured per environment)
	CurrentUserID uuid.UUID
}

// NewApp creates a new CLI application with the provided handlers.
func NewApp(
	logCycleHandler *cycleCommands.LogCycleHandler,
	deleteCycleHandler *cycleCommands.DeleteCycleHandler,
	listCyclesHandler *cycleQueries.ListCyclesHandler,
	getForecastHandler *cycleQueries.GetForecastHandler,
	replaceRulesHandler *reminderCommands.ReplaceRulesHandler,
	listRulesHandler *reminderQueries.ListRulesHandler,
	updateProfileHandler *identityCommands.UpdateProfileHandler,
	getProfileHandler *identityQueries.GetProfileHandler,
	users UserEnsurer,
) *App {
	return &App{
		LogCycleHandler:      logCycleHandler,
		DeleteCycleHandler:   deleteCycleHandler,
		ListCyclesHandler:    listCyclesHandler,
		GetForecastHandler:   getForecastHandler,
		ReplaceRulesHandler:  replaceRulesHandler,
		ListRulesHandler:     listRulesHandler,
		UpdateProfileHandler: updateProfileHandler,
		GetProfileHandler:    getProfileHandler,
		Users:                users,
		Logger:               slog.Default(),
		Location:             time.Local,
		CurrentUserID:        uuid.Nil,
	}
}

// SetJournalHandlers installs the daily journal handlers.
func (a *App) SetJournalHandlers(
	record *journalCommands.RecordEntryHandler,
	edit *journalCommands.EditEntryHandler,
	del *journalCommands.DeleteEntryHandler,
	list *journalQueries.ListEntriesHandler,
) {
	a.RecordEntryHandler = record
	a.EditEntryHandler = edit
	a.DeleteEntryHandler = del
	a.ListEntriesHandler = list
}

// SetCurrentUserID updates the current user ID.
func (a *App) SetCurrentUserID(id uuid.UUID) {
	a.CurrentUserID = id
}

// SetLocation updates the calendar location.
func (a *App) SetLocation(loc *time.Location) {
	if loc != nil {
		a.Location = loc
	}
}

// SetHealthRegistry updates the health registry.
func (a *App) SetHealthRegistry(registry *observability.HealthRegistry) {
	a.Health = registry
}

// SetEventBroker points event commands at a RabbitMQ broker.
func (a *App) SetEventBroker(url string) {
	a.RabbitMQURL = url
}

// EnsureCurrentUser makes sure the current user has a profile row, which
// cycles and reminder rules reference.
func (a *App) EnsureCurrentUser(ctx context.Context) error {
	if a.Users == nil {
		return nil
	}
	return a.Users.EnsureExists(ctx, a.CurrentUserID)
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
