package journal

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/cyclist/adapter/cli"
	"github.com/felixgeelhaar/cyclist/internal/journal/application/commands"
	sharedDomain "github.com/felixgeelhaar/cyclist/internal/shared/domain"
)

var (
	symptoms []string
	mood     string
	notes    string
)

var addCmd = &cobra.Command{
	Use:   "add [date]",
	Short: "Record the entry for a day",
	Long: `Record symptoms, mood and notes for a day (YYYY-MM-DD, default today).

Examples:
  cyclist journal add --symptom cramps --symptom headache --mood tired
  cyclist journal add 2024-04-02 --notes "slept badly"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.RecordEntryHandler == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Journal requires database connection.")
			return nil
		}

		date := sharedDomain.Day(time.Now(), app.Location)
		if len(args) == 1 {
			parsed, err := sharedDomain.ParseDate(args[0], app.Location)
			if err != nil {
				return fmt.Errorf("invalid date: %w", err)
			}
			date = parsed
		}

		if err := app.EnsureCurrentUser(cmd.Context()); err != nil {
			return fmt.Errorf("failed to prepare profile: %w", err)
		}

		result, err := app.RecordEntryHandler.Handle(cmd.Context(), commands.RecordEntryCommand{
			UserID:   app.CurrentUserID,
			Date:     date,
			Symptoms: symptoms,
			Mood:     mood,
			Notes:    notes,
		})
		if err != nil {
			return fmt.Errorf("failed to record entry: %w", err)
		}

		out := cmd.OutOrStdout()
		verb := "Updated"
		if result.Created {
			verb = "Recorded"
		}
		fmt.Fprintf(out, "%s entry for %s\n", verb, result.Entry.Date)
		if len(result.Entry.Symptoms) > 0 {
			fmt.Fprintf(out, "  Symptoms: %s\n", strings.Join(result.Entry.Symptoms, ", "))
		}
		fmt.Fprintf(out, "  ID: %s\n", result.Entry.ID)
		return nil
	},
}

func init() {
	addCmd.Flags().StringArrayVarP(&symptoms, "symptom", "s", nil, "symptom (repeatable)")
	addCmd.Flags().StringVarP(&mood, "mood", "m", "", "mood")
	addCmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
}
