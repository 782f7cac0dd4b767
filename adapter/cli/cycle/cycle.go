package cycle

import (
	"github.com/spf13/cobra"
)

// Cmd is the cycle command group
var Cmd = &cobra.Command{
	Use:   "cycle",
	Short: "Record and review cycles",
	Long:  `Log period starts, list recorded cycles and remove mistakes.`,
}

func init() {
	Cmd.AddCommand(logCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(deleteCmd)
}
