package commands

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/cyclist/internal/identity/application/queries"
	"github.com/felixgeelhaar/cyclist/internal/identity/domain"
)

// ErrEmptyUserID is returned when no user is given.
var ErrEmptyUserID = errors.New("user id is required")

// UpdateProfileCommand sets contact details. Nil fields are left unchanged;
// an empty string clears the field.
type UpdateProfileCommand struct {
	UserID      uuid.UUID
	Email       *string
	DisplayName *string
}

// UpdateProfileHandler handles the UpdateProfileCommand.
type UpdateProfileHandler struct {
	userRepo domain.UserRepository
}

// NewUpdateProfileHandler creates a new UpdateProfileHandler.
func NewUpdateProfileHandler(userRepo domain.UserRepository) *UpdateProfileHandler {
	return &UpdateProfileHandler{userRepo: userRepo}
}

// Handle creates the profile when the user does not exist yet.
func (h *UpdateProfileHandler) Handle(ctx context.Context, cmd UpdateProfileCommand) (*queries.ProfileDTO, error) {
	if cmd.UserID == uuid.Nil {
		return nil, ErrEmptyUserID
	}

	user, err := h.userRepo.FindByID(ctx, cmd.UserID)
	if errors.Is(err, domain.ErrUserNotFound) {
		user = domain.NewUser(cmd.UserID)
	} else if err != nil {
		return nil, err
	}

	email := user.Email()
	if cmd.Email != nil {
		if email, err = domain.NewEmail(*cmd.Email); err != nil {
			return nil, err
		}
	}

	name := user.DisplayName()
	if cmd.DisplayName != nil {
		if name, err = domain.NewDisplayName(*cmd.DisplayName); err != nil {
			return nil, err
		}
	}

	user.UpdateProfile(email, name)
	if err := h.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	return queries.ToProfileDTO(user), nil
}
