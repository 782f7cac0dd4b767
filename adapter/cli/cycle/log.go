package cycle

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/cyclist/adapter/cli"
	"github.com/felixgeelhaar/cyclist/internal/cycles/application/commands"
	sharedDomain "github.com/felixgeelhaar/cyclist/internal/shared/domain"
)

var (
	endDate     string
	cycleLength int
)

var logCmd = &cobra.Command{
	Use:   "log [start-date]",
	Short: "Log the first day of a period",
	Long: `Log the first day of a period. Dates are YYYY-MM-DD; without an
argument today is used. A previous cycle that is still open gets its
length recorded from the new start date.

Examples:
  cyclist cycle log
  cyclist cycle log 2024-04-01
  cyclist cycle log 2024-04-01 --end 2024-04-05`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.LogCycleHandler == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Cycle logging requires database connection.")
			return nil
		}

		start := sharedDomain.Day(time.Now(), app.Location)
		if len(args) == 1 {
			parsed, err := sharedDomain.ParseDate(args[0], app.Location)
			if err != nil {
				return fmt.Errorf("invalid start date: %w", err)
			}
			start = parsed
		}

		var end *time.Time
		if endDate != "" {
			parsed, err := sharedDomain.ParseDate(endDate, app.Location)
			if err != nil {
				return fmt.Errorf("invalid end date: %w", err)
			}
			end = &parsed
		}

		if err := app.EnsureCurrentUser(cmd.Context()); err != nil {
			return fmt.Errorf("failed to prepare profile: %w", err)
		}

		result, err := app.LogCycleHandler.Handle(cmd.Context(), commands.LogCycleCommand{
			UserID:      app.CurrentUserID,
			StartDate:   start,
			EndDate:     end,
			CycleLength: cycleLength,
		})
		if err != nil {
			return fmt.Errorf("failed to log cycle: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Logged cycle starting %s\n", sharedDomain.FormatDate(start))
		fmt.Fprintf(out, "  ID: %s\n", result.CycleID)
		if result.ClosedCycleID != nil {
			fmt.Fprintf(out, "  Previous cycle closed at %d days\n", result.ClosedLength)
		}
		return nil
	},
}

func init() {
	logCmd.Flags().StringVar(&endDate, "end", "", "last day of bleeding (YYYY-MM-DD)")
	logCmd.Flags().IntVar(&cycleLength, "length", 0, "cycle length in days, for importing past cycles")
}
