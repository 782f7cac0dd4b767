package reminders

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/cyclist/adapter/cli"
	"github.com/felixgeelhaar/cyclist/internal/reminders/application/commands"
)

var (
	method   string
	disabled bool
	clearAll bool
)

var setCmd = &cobra.Command{
	Use:   "set [rule...]",
	Short: "Replace all reminder rules",
	Long: `Replace your reminder rules. Each rule is TYPE[:DAYS][@HH:MM] where
TYPE is period or ovulation, DAYS is how many days ahead to remind
(default 2) and HH:MM the local time to send it (default 20:00).

Examples:
  cyclist reminders set period
  cyclist reminders set period:3@08:30 ovulation:1
  cyclist reminders set --clear`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ReplaceRulesHandler == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Reminder setup requires database connection.")
			return nil
		}
		if len(args) == 0 && !clearAll {
			return fmt.Errorf("no rules given; pass --clear to remove all reminders")
		}

		inputs := make([]commands.RuleInput, 0, len(args))
		for _, arg := range args {
			input, err := parseRule(arg)
			if err != nil {
				return err
			}
			input.Method = method
			enabled := !disabled
			input.Enabled = &enabled
			inputs = append(inputs, input)
		}

		if err := app.EnsureCurrentUser(cmd.Context()); err != nil {
			return fmt.Errorf("failed to prepare profile: %w", err)
		}

		result, err := app.ReplaceRulesHandler.Handle(cmd.Context(), commands.ReplaceRulesCommand{
			UserID: app.CurrentUserID,
			Rules:  inputs,
		})
		if err != nil {
			return fmt.Errorf("failed to save reminders: %w", err)
		}

		if len(result.RuleIDs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "All reminders removed.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %d reminder(s).\n", len(result.RuleIDs))
		return nil
	},
}

func init() {
	setCmd.Flags().StringVarP(&method, "method", "m", "email", "delivery method")
	setCmd.Flags().BoolVar(&disabled, "disabled", false, "store the rules switched off")
	setCmd.Flags().BoolVar(&clearAll, "clear", false, "remove all reminders")
}

// parseRule parses TYPE[:DAYS][@HH:MM].
func parseRule(s string) (commands.RuleInput, error) {
	var input commands.RuleInput

	rest := s
	if at := strings.IndexByte(rest, '@'); at >= 0 {
		input.TimeOfDay = rest[at+1:]
		rest = rest[:at]
		if input.TimeOfDay == "" {
			return input, fmt.Errorf("rule %q: missing time after @", s)
		}
	}
	if colon := strings.IndexByte(rest, ':'); colon >= 0 {
		days, err := strconv.Atoi(rest[colon+1:])
		if err != nil {
			return input, fmt.Errorf("rule %q: days must be a number", s)
		}
		input.DaysBefore = &days
		rest = rest[:colon]
	}
	input.Type = strings.ToLower(strings.TrimSpace(rest))
	if input.Type == "" {
		return input, fmt.Errorf("rule %q: missing type", s)
	}
	return input, nil
}
