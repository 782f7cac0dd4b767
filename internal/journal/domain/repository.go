package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for journal persistence.
type Repository interface {
	// Save persists an entry (create or update).
	Save(ctx context.Context, entry *Entry) error

	// FindByID returns ErrEntryNotFound unless the entry exists and belongs to userID.
	FindByID(ctx context.Context, userID, id uuid.UUID) (*Entry, error)

	// FindByDate returns ErrEntryNotFound when the user has no entry on date.
	FindByDate(ctx context.Context, userID uuid.UUID, date time.Time) (*Entry, error)

	// FindRange returns entries between from and to inclusive, newest first.
	// A nil bound is open.
	FindRange(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]*Entry, error)

	// Delete removes an entry owned by userID.
	Delete(ctx context.Context, userID, id uuid.UUID) error
}
