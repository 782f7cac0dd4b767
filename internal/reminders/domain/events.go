package domain

import (
	"github.com/google/uuid"
)

const (
	// AggregateTypeRule tags events raised for reminder rules.
	AggregateTypeRule = "ReminderRule"

	// RoutingKeyNotificationSent is published after a reminder was handed to the dispatcher.
	RoutingKeyNotificationSent = "reminders.notification.sent"

	// RoutingKeyRulesReplaced is published after a user's rule set was replaced.
	RoutingKeyRulesReplaced = "reminders.rules.replaced"
)

// RulesReplaced is the payload of RoutingKeyRulesReplaced.
type RulesReplaced struct {
	UserID  uuid.UUID   `json:"user_id"`
	RuleIDs []uuid.UUID `json:"rule_ids"`
	Enabled int         `json:"enabled"`
}

// NotificationSent is the payload of RoutingKeyNotificationSent.
type NotificationSent struct {
	RuleID    uuid.UUID `json:"rule_id"`
	UserID    uuid.UUID `json:"user_id"`
	Type      EventType `json:"type"`
	Method    Method    `json:"method"`
	EventDate string    `json:"event_date"`
	FireAt    string    `json:"fire_at"`
}
