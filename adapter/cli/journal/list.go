package journal

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/cyclist/adapter/cli"
	"github.com/felixgeelhaar/cyclist/internal/journal/application/queries"
)

var (
	listFrom string
	listTo   string
	listJSON bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List journal entries, newest first",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListEntriesHandler == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Journal requires database connection.")
			return nil
		}

		from, err := parseOptionalDate(listFrom, "from", app.Location)
		if err != nil {
			return err
		}
		to, err := parseOptionalDate(listTo, "to", app.Location)
		if err != nil {
			return err
		}

		entries, err := app.ListEntriesHandler.Handle(cmd.Context(), queries.ListEntriesQuery{
			UserID: app.CurrentUserID,
			From:   from,
			To:     to,
		})
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}

		out := cmd.OutOrStdout()
		if listJSON {
			return cli.PrintJSON(out, entries)
		}

		if len(entries) == 0 {
			fmt.Fprintln(out, "No journal entries.")
			return nil
		}

		for _, e := range entries {
			line := e.Date
			if e.Mood != "" {
				line += "  mood: " + e.Mood
			}
			if len(e.Symptoms) > 0 {
				line += "  symptoms: " + strings.Join(e.Symptoms, ", ")
			}
			if cli.Verbose() {
				line += "  " + e.ID.String()
			}
			fmt.Fprintln(out, line)
			if e.Notes != "" {
				fmt.Fprintf(out, "    %s\n", e.Notes)
			}
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listFrom, "from", "", "first day to include (YYYY-MM-DD)")
	listCmd.Flags().StringVar(&listTo, "to", "", "last day to include (YYYY-MM-DD)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output JSON")
}
