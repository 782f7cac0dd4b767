package profile

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/cyclist/adapter/cli"
	"github.com/felixgeelhaar/cyclist/internal/identity/application/commands"
)

var (
	email string
	name  string
)

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Update your email and display name",
	Long: `Update your contact details. Pass an empty value to clear a field.

Examples:
  cyclist profile set --email ada@example.com --name Ada
  cyclist profile set --email ""`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.UpdateProfileHandler == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Profile updates require database connection.")
			return nil
		}

		update := commands.UpdateProfileCommand{UserID: app.CurrentUserID}
		if cmd.Flags().Changed("email") {
			update.Email = &email
		}
		if cmd.Flags().Changed("name") {
			update.DisplayName = &name
		}
		if update.Email == nil && update.DisplayName == nil {
			return fmt.Errorf("nothing to update; pass --email or --name")
		}

		profile, err := app.UpdateProfileHandler.Handle(cmd.Context(), update)
		if err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Profile updated.")
		printProfile(cmd.OutOrStdout(), profile)
		return nil
	},
}

func init() {
	setCmd.Flags().StringVar(&email, "email", "", "address reminders are sent to")
	setCmd.Flags().StringVar(&name, "name", "", "name used in reminder greetings")
}
