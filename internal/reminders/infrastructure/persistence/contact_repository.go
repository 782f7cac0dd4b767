package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"

	identityDomain "github.com/felixgeelhaar/cyclist/internal/identity/domain"
	"github.com/felixgeelhaar/cyclist/internal/reminders/domain"
)

// ContactRepository resolves reminder contacts from user profiles.
type ContactRepository struct {
	users identityDomain.UserRepository
}

// NewContactRepository creates a new ContactRepository.
func NewContactRepository(users identityDomain.UserRepository) *ContactRepository {
	return &ContactRepository{users: users}
}

// FindContact returns nil for unknown users and users without an email address.
func (r *ContactRepository) FindContact(ctx context.Context, userID uuid.UUID) (*domain.Contact, error) {
	user, err := r.users.FindByID(ctx, userID)
	if errors.Is(err, identityDomain.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !user.Reachable() {
		return nil, nil
	}
	return &domain.Contact{
		UserID:      user.ID(),
		DisplayName: user.DisplayName().String(),
		Email:       user.Email().String(),
	}, nil
}
