package journal

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	sharedDomain "github.com/felixgeelhaar/cyclist/internal/shared/domain"
)

// Cmd is the journal command group
var Cmd = &cobra.Command{
	Use:   "journal",
	Short: "Track daily symptoms, mood and notes",
	Long: `Keep one journal entry per day with symptoms, mood and free-form notes.
Recording a day that already has an entry replaces its values.`,
}

func init() {
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(editCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(deleteCmd)
}

func parseOptionalDate(value, name string, loc *time.Location) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	d, err := sharedDomain.ParseDate(value, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid %s date: %w", name, err)
	}
	return &d, nil
}
