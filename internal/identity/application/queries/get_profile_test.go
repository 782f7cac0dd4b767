package queries

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/cyclist/internal/identity/domain"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Save(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) EnsureExists(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func TestGetProfileHandler_Handle(t *testing.T) {
	userID := uuid.New()
	repo := new(mockUserRepo)
	handler := NewGetProfileHandler(repo)

	name, err := domain.NewDisplayName("Ada")
	require.NoError(t, err)
	repo.On("FindByID", mock.Anything, userID).Return(domain.RehydrateUser(userID, domain.Email{}, name, time.Now(), time.Now()), nil)
	repo.On("FindByID", mock.Anything, mock.Anything).Return(nil, domain.ErrUserNotFound)

	profile, err := handler.Handle(context.Background(), GetProfileQuery{UserID: userID})
	require.NoError(t, err)
	assert.Equal(t, "Ada", profile.DisplayName)
	assert.False(t, profile.Reachable)

	_, err = handler.Handle(context.Background(), GetProfileQuery{UserID: uuid.New()})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
