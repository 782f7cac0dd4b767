package cycle

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/cyclist/adapter/cli"
	"github.com/felixgeelhaar/cyclist/internal/cycles/application/queries"
)

var (
	listLimit int
	listJSON  bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List recorded cycles, newest first",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListCyclesHandler == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Cycle listing requires database connection.")
			return nil
		}

		cycles, err := app.ListCyclesHandler.Handle(cmd.Context(), queries.ListCyclesQuery{
			UserID: app.CurrentUserID,
			Limit:  listLimit,
		})
		if err != nil {
			return fmt.Errorf("failed to list cycles: %w", err)
		}

		out := cmd.OutOrStdout()
		if listJSON {
			return cli.PrintJSON(out, cycles)
		}

		if len(cycles) == 0 {
			fmt.Fprintln(out, "No cycles recorded. Log one with: cyclist cycle log YYYY-MM-DD")
			return nil
		}

		for _, c := range cycles {
			length := "open"
			switch {
			case c.Estimated:
				length = fmt.Sprintf("~%d days", c.CycleLength)
			case c.CycleLength > 0:
				length = fmt.Sprintf("%d days", c.CycleLength)
			}
			line := fmt.Sprintf("%s  %-8s", c.StartDate, length)
			if c.EndDate != "" {
				line += "  bled until " + c.EndDate
			}
			if cli.Verbose() {
				line += "  " + c.ID.String()
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "maximum number of cycles (0 lists all)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output JSON")
}
