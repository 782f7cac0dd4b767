package profile

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/cyclist/adapter/cli"
	"github.com/felixgeelhaar/cyclist/internal/identity/application/queries"
	"github.com/felixgeelhaar/cyclist/internal/identity/domain"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetProfileHandler == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Profile lookup requires database connection.")
			return nil
		}

		profile, err := app.GetProfileHandler.Handle(cmd.Context(), queries.GetProfileQuery{
			UserID: app.CurrentUserID,
		})
		if errors.Is(err, domain.ErrUserNotFound) {
			profile = &queries.ProfileDTO{UserID: app.CurrentUserID}
		} else if err != nil {
			return fmt.Errorf("failed to load profile: %w", err)
		}

		if showJSON {
			return cli.PrintJSON(cmd.OutOrStdout(), profile)
		}
		printProfile(cmd.OutOrStdout(), profile)
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "output JSON")
}
