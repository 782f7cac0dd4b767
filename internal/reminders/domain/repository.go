package domain

import (
	"context"

	"github.com/google/uuid"
)

// RuleRepository defines the interface for reminder rule persistence.
type RuleRepository interface {
	// FindEnabled returns every enabled rule across users.
	FindEnabled(ctx context.Context) ([]*Rule, error)

	// FindByUserID returns all rules of a user.
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*Rule, error)

	// ReplaceForUser deletes the user's rules and stores rules in their place.
	ReplaceForUser(ctx context.Context, userID uuid.UUID, rules []*Rule) error
}
