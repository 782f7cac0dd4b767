package journal

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/cyclist/adapter/cli"
	"github.com/felixgeelhaar/cyclist/internal/journal/application/commands"
	"github.com/felixgeelhaar/cyclist/internal/journal/domain"
)

var editDate string

var editCmd = &cobra.Command{
	Use:   "edit [entry-id]",
	Short: "Replace an entry's values, optionally moving it to another day",
	Long: `Replace the symptoms, mood and notes of an entry. Values not given are
cleared. Use --date to move the entry; a day holds at most one entry.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.EditEntryHandler == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Journal requires database connection.")
			return nil
		}

		entryID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid entry ID: %w", err)
		}
		date, err := parseOptionalDate(editDate, "entry", app.Location)
		if err != nil {
			return err
		}

		entry, err := app.EditEntryHandler.Handle(cmd.Context(), commands.EditEntryCommand{
			UserID:   app.CurrentUserID,
			EntryID:  entryID,
			Date:     date,
			Symptoms: symptoms,
			Mood:     mood,
			Notes:    notes,
		})
		switch {
		case errors.Is(err, domain.ErrEntryNotFound):
			return fmt.Errorf("entry %s not found", entryID)
		case errors.Is(err, domain.ErrDateAlreadyLogged):
			return fmt.Errorf("%s already has an entry", editDate)
		case err != nil:
			return fmt.Errorf("failed to edit entry: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Updated entry for %s\n", entry.Date)
		return nil
	},
}

func init() {
	editCmd.Flags().StringVar(&editDate, "date", "", "move the entry to this day (YYYY-MM-DD)")
	editCmd.Flags().StringArrayVarP(&symptoms, "symptom", "s", nil, "symptom (repeatable)")
	editCmd.Flags().StringVarP(&mood, "mood", "m", "", "mood")
	editCmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
}
