package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/cyclist/pkg/observability"
)

var healthJSON bool

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the database, reminder ledger, broker and mail relay",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("app not initialized")
		}
		out := cmd.OutOrStdout()
		if app.Health == nil {
			fmt.Fprintln(out, "ok")
			return nil
		}

		report := app.Health.Check(cmd.Context())
		if healthJSON {
			if err := PrintJSON(out, report); err != nil {
				return err
			}
		} else {
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "COMPONENT\tSTATUS\tDETAIL")
			for _, name := range report.Names() {
				check := report.Checks[name]
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, check.Status, check.Message)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\noverall: %s\n", report.Status)
		}

		if report.Status == observability.HealthStatusUnhealthy {
			return fmt.Errorf("unhealthy")
		}
		return nil
	},
}

func init() {
	healthCmd.Flags().BoolVar(&healthJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(healthCmd)
}
