package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/cyclist/internal/identity/domain"
)

// mockUserRepo is a mock implementation of domain.UserRepository.
type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Save(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) EnsureExists(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func strPtr(s string) *string { return &s }

func TestUpdateProfileHandler_Handle(t *testing.T) {
	userID := uuid.New()

	t.Run("creates profile for new user", func(t *testing.T) {
		repo := new(mockUserRepo)
		handler := NewUpdateProfileHandler(repo)

		repo.On("FindByID", mock.Anything, userID).Return(nil, domain.ErrUserNotFound)
		repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

		profile, err := handler.Handle(context.Background(), UpdateProfileCommand{
			UserID:      userID,
			Email:       strPtr("Ada@Example.com"),
			DisplayName: strPtr(" Ada "),
		})

		require.NoError(t, err)
		assert.Equal(t, userID, profile.UserID)
		assert.Equal(t, "ada@example.com", profile.Email)
		assert.Equal(t, "Ada", profile.DisplayName)
		assert.True(t, profile.Reachable)
		repo.AssertExpectations(t)
	})

	t.Run("keeps unset fields", func(t *testing.T) {
		repo := new(mockUserRepo)
		handler := NewUpdateProfileHandler(repo)

		email, err := domain.NewEmail("ada@example.com")
		require.NoError(t, err)
		name, err := domain.NewDisplayName("Ada")
		require.NoError(t, err)
		existing := domain.RehydrateUser(userID, email, name, time.Now(), time.Now())

		repo.On("FindByID", mock.Anything, userID).Return(existing, nil)
		repo.On("Save", mock.Anything, existing).Return(nil)

		profile, err := handler.Handle(context.Background(), UpdateProfileCommand{
			UserID:      userID,
			DisplayName: strPtr("Ada L."),
		})

		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", profile.Email)
		assert.Equal(t, "Ada L.", profile.DisplayName)
	})

	t.Run("empty email clears address", func(t *testing.T) {
		repo := new(mockUserRepo)
		handler := NewUpdateProfileHandler(repo)

		email, _ := domain.NewEmail("ada@example.com")
		existing := domain.RehydrateUser(userID, email, domain.DisplayName{}, time.Now(), time.Now())
		repo.On("FindByID", mock.Anything, userID).Return(existing, nil)
		repo.On("Save", mock.Anything, existing).Return(nil)

		profile, err := handler.Handle(context.Background(), UpdateProfileCommand{UserID: userID, Email: strPtr("")})

		require.NoError(t, err)
		assert.False(t, profile.Reachable)
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		repo := new(mockUserRepo)
		handler := NewUpdateProfileHandler(repo)
		repo.On("FindByID", mock.Anything, userID).Return(nil, domain.ErrUserNotFound)

		_, err := handler.Handle(context.Background(), UpdateProfileCommand{UserID: userID, Email: strPtr("ada@localhost")})

		assert.ErrorIs(t, err, domain.ErrInvalidEmail)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("propagates lookup errors", func(t *testing.T) {
		repo := new(mockUserRepo)
		handler := NewUpdateProfileHandler(repo)
		repo.On("FindByID", mock.Anything, userID).Return(nil, errors.New("database locked"))

		_, err := handler.Handle(context.Background(), UpdateProfileCommand{UserID: userID})
		assert.Error(t, err)
	})

	t.Run("rejects empty user", func(t *testing.T) {
		_, err := NewUpdateProfileHandler(new(mockUserRepo)).Handle(context.Background(), UpdateProfileCommand{})
		assert.ErrorIs(t, err, ErrEmptyUserID)
	})
}
