package domain

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for cycle persistence.
type Repository interface {
	// Save persists a cycle (create or update).
	Save(ctx context.Context, cycle *Cycle) error

	// FindRecent returns up to limit cycles for a user, most recent start first.
	FindRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*Cycle, error)

	// FindByUserID returns every cycle for a user, most recent start first.
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*Cycle, error)

	// Delete removes a cycle owned by userID.
	Delete(ctx context.Context, userID, id uuid.UUID) error
}
