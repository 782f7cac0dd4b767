package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/cyclist/internal/identity/domain"
	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/crypto"
	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/database"
	sharedPersistence "github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/persistence"
)

const (
	upsertUserSQL = `
INSERT INTO users (id, display_name, email, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    display_name = excluded.display_name,
    email = excluded.email,
    updated_at = excluded.updated_at`

	ensureUserSQL = `
INSERT INTO users (id, display_name, email, created_at, updated_at)
VALUES ($1, '', '', $2, $2)
ON CONFLICT (id) DO NOTHING`

	selectUserSQL = `
SELECT id, display_name, email, created_at, updated_at
FROM users WHERE id = $1`
)

// UserRepository implements domain.UserRepository on the shared database layer.
type UserRepository struct {
	conn   database.Connection
	cipher crypto.FieldCipher
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(conn database.Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

// WithCipher seals display names and emails at rest. Rows written before
// the cipher was configured remain readable.
func (r *UserRepository) WithCipher(c crypto.FieldCipher) *UserRepository {
	r.cipher = c
	return r
}

func (r *UserRepository) seal(value string, id uuid.UUID) (string, error) {
	if r.cipher == nil {
		return value, nil
	}
	return r.cipher.Seal(value, id.String())
}

func (r *UserRepository) open(stored string, id uuid.UUID) (string, error) {
	if r.cipher == nil {
		return stored, nil
	}
	return r.cipher.Open(stored, id.String())
}

func (r *UserRepository) executor(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *UserRepository) bind(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

// Save persists a user to the database.
func (r *UserRepository) Save(ctx context.Context, user *domain.User) error {
	name, err := r.seal(user.DisplayName().String(), user.ID())
	if err != nil {
		return fmt.Errorf("failed to seal display name: %w", err)
	}
	email, err := r.seal(user.Email().String(), user.ID())
	if err != nil {
		return fmt.Errorf("failed to seal email: %w", err)
	}

	_, err = r.executor(ctx).Exec(ctx, r.bind(upsertUserSQL),
		user.ID().String(),
		name,
		email,
		sharedPersistence.FormatTimestamp(user.CreatedAt()),
		sharedPersistence.FormatTimestamp(user.UpdatedAt()),
	)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// EnsureExists creates an empty profile for id if none exists yet.
func (r *UserRepository) EnsureExists(ctx context.Context, id uuid.UUID) error {
	now := sharedPersistence.FormatTimestamp(time.Now())
	if _, err := r.executor(ctx).Exec(ctx, r.bind(ensureUserSQL), id.String(), now); err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}
	return nil
}

// FindByID retrieves a user by their ID.
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var (
		rawID, name, email   string
		createdAt, updatedAt string
	)
	err := r.executor(ctx).QueryRow(ctx, r.bind(selectUserSQL), id.String()).
		Scan(&rawID, &name, &email, &createdAt, &updatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	if name, err = r.open(name, id); err != nil {
		return nil, fmt.Errorf("failed to open display name: %w", err)
	}
	if email, err = r.open(email, id); err != nil {
		return nil, fmt.Errorf("failed to open email: %w", err)
	}

	return rowToUser(rawID, name, email, createdAt, updatedAt)
}

func rowToUser(rawID, name, email, createdAt, updatedAt string) (*domain.User, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", rawID, err)
	}
	created, err := sharedPersistence.ParseTimestamp(createdAt)
	if err != nil {
		return nil, err
	}
	updated, err := sharedPersistence.ParseTimestamp(updatedAt)
	if err != nil {
		return nil, err
	}

	// Stored values were validated on the way in; an address that no longer
	// parses is treated as absent so the user is skipped, not failed.
	addr, _ := domain.NewEmail(email)
	display, _ := domain.NewDisplayName(name)

	return domain.RehydrateUser(id, addr, display, created, updated), nil
}
