package reminders

import (
	"github.com/spf13/cobra"
)

// Cmd is the reminders command group
var Cmd = &cobra.Command{
	Use:     "reminders",
	Short:   "Configure period and ovulation reminders",
	Aliases: []string{"reminder"},
}

func init() {
	Cmd.AddCommand(setCmd)
	Cmd.AddCommand(listCmd)
}
