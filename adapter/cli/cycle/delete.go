package cycle

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/cyclist/adapter/cli"
	"github.com/felixgeelhaar/cyclist/internal/cycles/application/commands"
	"github.com/felixgeelhaar/cyclist/internal/cycles/domain"
)

var deleteCmd = &cobra.Command{
	Use:     "delete [cycle-id]",
	Short:   "Delete a recorded cycle",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.DeleteCycleHandler == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Cycle deletion requires database connection.")
			return nil
		}

		cycleID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid cycle ID: %w", err)
		}

		err = app.DeleteCycleHandler.Handle(cmd.Context(), commands.DeleteCycleCommand{
			UserID:  app.CurrentUserID,
			CycleID: cycleID,
		})
		if errors.Is(err, domain.ErrCycleNotFound) {
			return fmt.Errorf("cycle %s not found", cycleID)
		}
		if err != nil {
			return fmt.Errorf("failed to delete cycle: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Cycle deleted.")
		return nil
	},
}
