package queries

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/cyclist/internal/identity/domain"
)

// ProfileDTO is the read model of a user profile.
type ProfileDTO struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	Reachable   bool      `json:"reachable"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToProfileDTO maps a user to its read model.
func ToProfileDTO(user *domain.User) *ProfileDTO {
	return &ProfileDTO{
		UserID:      user.ID(),
		Email:       user.Email().String(),
		DisplayName: user.DisplayName().String(),
		Reachable:   user.Reachable(),
		UpdatedAt:   user.UpdatedAt(),
	}
}

// GetProfileQuery asks for a user's profile.
type GetProfileQuery struct {
	UserID uuid.UUID
}

// GetProfileHandler handles the GetProfileQuery.
type GetProfileHandler struct {
	userRepo domain.UserRepository
}

// NewGetProfileHandler creates a new GetProfileHandler.
func NewGetProfileHandler(userRepo domain.UserRepository) *GetProfileHandler {
	return &GetProfileHandler{userRepo: userRepo}
}

// Handle returns domain.ErrUserNotFound for unknown users.
func (h *GetProfileHandler) Handle(ctx context.Context, query GetProfileQuery) (*ProfileDTO, error) {
	user, err := h.userRepo.FindByID(ctx, query.UserID)
	if err != nil {
		return nil, err
	}
	return ToProfileDTO(user), nil
}
