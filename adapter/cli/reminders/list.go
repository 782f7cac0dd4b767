package reminders

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/cyclist/adapter/cli"
	"github.com/felixgeelhaar/cyclist/internal/reminders/application/queries"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List reminder rules",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListRulesHandler == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Reminder listing requires database connection.")
			return nil
		}

		rules, err := app.ListRulesHandler.Handle(cmd.Context(), queries.ListRulesQuery{
			UserID: app.CurrentUserID,
		})
		if err != nil {
			return fmt.Errorf("failed to list reminders: %w", err)
		}

		out := cmd.OutOrStdout()
		if listJSON {
			return cli.PrintJSON(out, rules)
		}
		if len(rules) == 0 {
			fmt.Fprintln(out, "No reminders configured. Add one with: cyclist reminders set period:2@20:00")
			return nil
		}

		for _, r := range rules {
			state := "on"
			if !r.Enabled {
				state = "off"
			}
			fmt.Fprintf(out, "%-10s %d day(s) before at %s via %s [%s]\n",
				r.Type, r.DaysBefore, r.TimeOfDay, r.Method, state)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output JSON")
}
