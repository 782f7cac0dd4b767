package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/cyclist/pkg/observability"
)

var (
	verbose bool
	logger  *slog.Logger
)

type startedAtKey struct{}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cyclist",
	Short: "Cyclist - period tracking and reminders",
	Long: `Cyclist records menstrual cycles, forecasts the next period,
ovulation and fertile window, and sends reminders ahead of them.

Run the worker binary to deliver reminders on schedule.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cmd.SetContext(commandScope(cmd.Context(), time.Now()))
		cliLogger().DebugContext(cmd.Context(), "command start", "command", cmd.CommandPath())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		startedAt, ok := ctx.Value(startedAtKey{}).(time.Time)
		if !ok {
			return
		}
		cliLogger().DebugContext(ctx, "command end",
			"command", cmd.CommandPath(),
			observability.DurationKey, time.Since(startedAt).Milliseconds(),
		)
	},
}

// commandScope gives one command invocation its own correlation id and,
// once the app is wired, the current user. Events the command records
// carry both.
func commandScope(ctx context.Context, startedAt time.Time) context.Context {
	ctx = context.WithValue(ctx, startedAtKey{}, startedAt)
	ctx = observability.WithCorrelationID(ctx, "")
	if app != nil {
		ctx = observability.WithUserID(ctx, app.CurrentUserID)
	}
	return ctx
}

func cliLogger() *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// ExecuteContext runs the root command and exits non-zero on failure.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// AddCommand adds a command to the root command.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// SetLogger sets the CLI logger.
func SetLogger(l *slog.Logger) {
	logger = l
}

// Verbose reports whether --verbose was passed.
func Verbose() bool {
	return verbose
}

// RootCommand returns the root command.
func RootCommand() *cobra.Command {
	return rootCmd
}
