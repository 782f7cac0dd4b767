package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/cyclist/internal/journal/domain"
	sharedDomain "github.com/felixgeelhaar/cyclist/internal/shared/domain"
	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/crypto"
	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/database"
	sharedPersistence "github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/persistence"
)

const (
	upsertEntrySQL = `
INSERT INTO journal_entries (id, user_id, entry_date, symptoms, mood, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
    entry_date = excluded.entry_date,
    symptoms = excluded.symptoms,
    mood = excluded.mood,
    notes = excluded.notes,
    updated_at = excluded.updated_at`

	selectEntriesSQL = `
SELECT id, user_id, entry_date, symptoms, mood, notes, created_at, updated_at
FROM journal_entries
WHERE user_id = $1`

	deleteEntrySQL = `DELETE FROM journal_entries WHERE id = $1 AND user_id = $2`
)

// EntryRepository implements domain.Repository on the shared database layer.
type EntryRepository struct {
	conn   database.Connection
	loc    *time.Location
	cipher crypto.FieldCipher
}

// NewEntryRepository creates a new EntryRepository. Dates are decoded as
// midnight in loc.
func NewEntryRepository(conn database.Connection, loc *time.Location) *EntryRepository {
	if loc == nil {
		loc = time.Local
	}
	return &EntryRepository{conn: conn, loc: loc}
}

// WithCipher seals entry notes at rest.
func (r *EntryRepository) WithCipher(c crypto.FieldCipher) *EntryRepository {
	r.cipher = c
	return r
}

func (r *EntryRepository) executor(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *EntryRepository) bind(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

// Save persists an entry (create or update).
func (r *EntryRepository) Save(ctx context.Context, entry *domain.Entry) error {
	symptoms, err := json.Marshal(entry.Symptoms())
	if err != nil {
		return fmt.Errorf("failed to encode symptoms: %w", err)
	}

	notes := entry.Notes()
	if r.cipher != nil {
		if notes, err = r.cipher.Seal(notes, entry.ID().String()); err != nil {
			return fmt.Errorf("failed to seal notes: %w", err)
		}
	}

	_, err = r.executor(ctx).Exec(ctx, r.bind(upsertEntrySQL),
		entry.ID().String(),
		entry.UserID().String(),
		sharedDomain.FormatDate(entry.Date()),
		string(symptoms),
		entry.Mood(),
		notes,
		sharedPersistence.FormatTimestamp(entry.CreatedAt()),
		sharedPersistence.FormatTimestamp(entry.UpdatedAt()),
	)
	if database.IsUniqueViolation(err) {
		return domain.ErrDateAlreadyLogged
	}
	if err != nil {
		return fmt.Errorf("failed to save journal entry: %w", err)
	}
	return nil
}

// FindByID returns an entry owned by userID.
func (r *EntryRepository) FindByID(ctx context.Context, userID, id uuid.UUID) (*domain.Entry, error) {
	entries, err := r.query(ctx, selectEntriesSQL+" AND id = $2", userID.String(), id.String())
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, domain.ErrEntryNotFound
	}
	return entries[0], nil
}

// FindByDate returns the entry for a calendar date.
func (r *EntryRepository) FindByDate(ctx context.Context, userID uuid.UUID, date time.Time) (*domain.Entry, error) {
	entries, err := r.query(ctx, selectEntriesSQL+" AND entry_date = $2", userID.String(), sharedDomain.FormatDate(date))
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, domain.ErrEntryNotFound
	}
	return entries[0], nil
}

// FindRange returns entries between from and to inclusive, newest first.
// A nil bound is open.
func (r *EntryRepository) FindRange(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]*domain.Entry, error) {
	var sb strings.Builder
	sb.WriteString(selectEntriesSQL)
	args := []any{userID.String()}

	if from != nil {
		args = append(args, sharedDomain.FormatDate(*from))
		fmt.Fprintf(&sb, " AND entry_date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, sharedDomain.FormatDate(*to))
		fmt.Fprintf(&sb, " AND entry_date <= $%d", len(args))
	}
	sb.WriteString("\nORDER BY entry_date DESC")

	return r.query(ctx, sb.String(), args...)
}

// Delete removes an entry owned by userID.
func (r *EntryRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result, err := r.executor(ctx).Exec(ctx, r.bind(deleteEntrySQL), id.String(), userID.String())
	if err != nil {
		return fmt.Errorf("failed to delete journal entry: %w", err)
	}
	return database.RequireAffected(result, domain.ErrEntryNotFound)
}

type entryRow struct {
	id, userID, date, symptoms, mood, notes, createdAt, updatedAt string
}

func (r *EntryRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Entry, error) {
	rows, err := r.executor(ctx).Query(ctx, r.bind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal entries: %w", err)
	}
	return database.CollectRows(rows, func(row database.Row) (*domain.Entry, error) {
		var e entryRow
		if err := row.Scan(&e.id, &e.userID, &e.date, &e.symptoms, &e.mood, &e.notes, &e.createdAt, &e.updatedAt); err != nil {
			return nil, err
		}
		return r.rowToEntry(e)
	})
}

func (r *EntryRepository) rowToEntry(row entryRow) (*domain.Entry, error) {
	id, err := uuid.Parse(row.id)
	if err != nil {
		return nil, fmt.Errorf("invalid entry id %q: %w", row.id, err)
	}
	userID, err := uuid.Parse(row.userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", row.userID, err)
	}
	date, err := sharedDomain.ParseDate(row.date, r.loc)
	if err != nil {
		return nil, err
	}

	var symptoms []string
	if err := json.Unmarshal([]byte(row.symptoms), &symptoms); err != nil {
		return nil, fmt.Errorf("invalid symptoms for entry %s: %w", row.id, err)
	}

	notes := row.notes
	if r.cipher != nil {
		if notes, err = r.cipher.Open(notes, row.id); err != nil {
			return nil, fmt.Errorf("failed to open notes: %w", err)
		}
	}

	created, err := sharedPersistence.ParseTimestamp(row.createdAt)
	if err != nil {
		return nil, err
	}
	updated, err := sharedPersistence.ParseTimestamp(row.updatedAt)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateEntry(id, userID, date, symptoms, row.mood, notes, created, updated), nil
}

var _ domain.Repository = (*EntryRepository)(nil)
