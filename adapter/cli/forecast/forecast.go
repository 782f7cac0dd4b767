package forecast

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/cyclist/adapter/cli"
	"github.com/felixgeelhaar/cyclist/internal/cycles/application/queries"
)

var asJSON bool

// Cmd prints the current forecast.
var Cmd = &cobra.Command{
	Use:   "forecast",
	Short: "Show the predicted next period, ovulation and fertile window",
	Long: `Show the forecast computed from your recent cycles.

Examples:
  cyclist forecast
  cyclist forecast --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetForecastHandler == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Forecast requires database connection.")
			return nil
		}

		forecast, err := app.GetForecastHandler.Handle(cmd.Context(), queries.GetForecastQuery{
			UserID: app.CurrentUserID,
		})
		if err != nil {
			return fmt.Errorf("failed to compute forecast: %w", err)
		}

		out := cmd.OutOrStdout()
		if forecast == nil {
			if asJSON {
				return cli.PrintJSON(out, queries.ForecastDTO{})
			}
			fmt.Fprintln(out, "No cycles recorded yet. Log one with: cyclist cycle log YYYY-MM-DD")
			return nil
		}
		if asJSON {
			return cli.PrintJSON(out, forecast)
		}

		fmt.Fprintf(out, "Next period:    %s (%d days)\n", forecast.NextPeriodStart, forecast.PeriodLength)
		fmt.Fprintf(out, "Ovulation:      %s\n", forecast.OvulationDate)
		fmt.Fprintf(out, "Fertile window: %s to %s\n", forecast.FertileStart, forecast.FertileEnd)
		if forecast.FertileToday {
			fmt.Fprintln(out, "Fertile today:  yes")
		}
		fmt.Fprintf(out, "Phase:          %s (day %d of %d)\n", forecast.Phase, forecast.DayIndex+1, forecast.CycleLength)
		return nil
	},
}

func init() {
	Cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
}
