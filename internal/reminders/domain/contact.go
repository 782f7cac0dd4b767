package domain

import (
	"context"

	"github.com/google/uuid"
)

// Contact is where a user's reminders are delivered.
type Contact struct {
	UserID      uuid.UUID
	DisplayName string
	Email       string
}

// ContactRepository resolves delivery contacts.
type ContactRepository interface {
	// FindContact returns nil without error when the user has no usable address.
	FindContact(ctx context.Context, userID uuid.UUID) (*Contact, error)
}
