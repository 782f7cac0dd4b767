package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identityDomain "github.com/felixgeelhaar/cyclist/internal/identity/domain"
	identityPersistence "github.com/felixgeelhaar/cyclist/internal/identity/infrastructure/persistence"
)

func TestContactRepository_FindContact(t *testing.T) {
	conn := setupRuleTestDB(t)
	users := identityPersistence.NewUserRepository(conn)
	contacts := NewContactRepository(users)
	ctx := context.Background()

	t.Run("unknown user", func(t *testing.T) {
		contact, err := contacts.FindContact(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, contact)
	})

	t.Run("user without email", func(t *testing.T) {
		userID := createUser(t, conn)

		contact, err := contacts.FindContact(ctx, userID)
		require.NoError(t, err)
		assert.Nil(t, contact)
	})

	t.Run("reachable user", func(t *testing.T) {
		user := identityDomain.NewUser(uuid.New())
		email, err := identityDomain.NewEmail("ada@example.com")
		require.NoError(t, err)
		name, err := identityDomain.NewDisplayName("Ada")
		require.NoError(t, err)
		user.UpdateProfile(email, name)
		require.NoError(t, users.Save(ctx, user))

		contact, err := contacts.FindContact(ctx, user.ID())
		require.NoError(t, err)
		require.NotNil(t, contact)
		assert.Equal(t, user.ID(), contact.UserID)
		assert.Equal(t, "ada@example.com", contact.Email)
		assert.Equal(t, "Ada", contact.DisplayName)
	})
}
