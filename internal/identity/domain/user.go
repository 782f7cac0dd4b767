package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrUserNotFound is returned when a user does not exist.
var ErrUserNotFound = errors.New("user not found")

// User is the owner of cycles and reminder rules. The email address is
// where reminders are delivered.
type User struct {
	id          uuid.UUID
	email       Email
	displayName DisplayName
	createdAt   time.Time
	updatedAt   time.Time
}

// NewUser creates a user with the given id and no contact details.
func NewUser(id uuid.UUID) *User {
	now := time.Now().UTC()
	return &User{
		id:        id,
		createdAt: now,
		updatedAt: now,
	}
}

// RehydrateUser recreates a user from persisted state.
func RehydrateUser(id uuid.UUID, email Email, displayName DisplayName, createdAt, updatedAt time.Time) *User {
	return &User{
		id:          id,
		email:       email,
		displayName: displayName,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (u *User) ID() uuid.UUID            { return u.id }
func (u *User) Email() Email             { return u.email }
func (u *User) DisplayName() DisplayName { return u.displayName }
func (u *User) CreatedAt() time.Time     { return u.createdAt }
func (u *User) UpdatedAt() time.Time     { return u.updatedAt }

// UpdateProfile replaces the contact details.
func (u *User) UpdateProfile(email Email, displayName DisplayName) {
	if u.email == email && u.displayName == displayName {
		return
	}
	u.email = email
	u.displayName = displayName
	u.updatedAt = time.Now().UTC()
}

// Reachable reports whether reminders can be delivered to the user.
func (u *User) Reachable() bool {
	return !u.email.IsZero()
}

// UserRepository stores profiles. Cycles, rules and journal entries
// reference a profile row, so the current user is ensured before any write.
type UserRepository interface {
	Save(ctx context.Context, user *User) error
	// FindByID returns ErrUserNotFound for an unknown id.
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// EnsureExists inserts an empty profile for id unless one exists.
	EnsureExists(ctx context.Context, id uuid.UUID) error
}
