package profile

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/cyclist/internal/identity/application/queries"
)

// Cmd is the profile command group
var Cmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage where reminders are delivered",
}

func init() {
	Cmd.AddCommand(setCmd)
	Cmd.AddCommand(showCmd)
}

func printProfile(w io.Writer, p *queries.ProfileDTO) {
	email := p.Email
	if email == "" {
		email = "(not set)"
	}
	name := p.DisplayName
	if name == "" {
		name = "(not set)"
	}
	fmt.Fprintf(w, "Name:  %s\n", name)
	fmt.Fprintf(w, "Email: %s\n", email)
	if !p.Reachable {
		fmt.Fprintln(w, "Reminders cannot be delivered until an email is set.")
	}
}
