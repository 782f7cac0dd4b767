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

var deleteCmd = &cobra.Command{
	Use:     "delete [entry-id]",
	Short:   "Delete a journal entry",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.DeleteEntryHandler == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Journal requires database connection.")
			return nil
		}

		entryID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid entry ID: %w", err)
		}

		err = app.DeleteEntryHandler.Handle(cmd.Context(), commands.DeleteEntryCommand{
			UserID:  app.CurrentUserID,
			EntryID: entryID,
		})
		if errors.Is(err, domain.ErrEntryNotFound) {
			return fmt.Errorf("entry %s not found", entryID)
		}
		if err != nil {
			return fmt.Errorf("failed to delete entry: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Entry deleted.")
		return nil
	},
}
