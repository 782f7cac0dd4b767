package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/cyclist/internal/cycles/domain"
	sharedDomain "github.com/felixgeelhaar/cyclist/internal/shared/domain"
	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/database"
	sharedPersistence "github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/persistence"
)

const (
	upsertCycleSQL = `
INSERT INTO cycles (id, user_id, start_date, end_date, cycle_length, length_estimated, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
    start_date = excluded.start_date,
    end_date = excluded.end_date,
    cycle_length = excluded.cycle_length,
    length_estimated = excluded.length_estimated`

	selectCyclesSQL = `
SELECT id, user_id, start_date, end_date, cycle_length, length_estimated, created_at
FROM cycles
WHERE user_id = $1
ORDER BY start_date DESC, created_at DESC`

	deleteCycleSQL = `DELETE FROM cycles WHERE id = $1 AND user_id = $2`
)

// CycleRepository implements domain.Repository on the shared database layer.
// Calendar dates are decoded as midnight in loc.
type CycleRepository struct {
	conn database.Connection
	loc  *time.Location
}

// NewCycleRepository creates a new CycleRepository.
func NewCycleRepository(conn database.Connection, loc *time.Location) *CycleRepository {
	if loc == nil {
		loc = time.Local
	}
	return &CycleRepository{conn: conn, loc: loc}
}

func (r *CycleRepository) executor(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *CycleRepository) bind(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

// Save persists a cycle (create or update).
func (r *CycleRepository) Save(ctx context.Context, cycle *domain.Cycle) error {
	_, err := r.executor(ctx).Exec(ctx, r.bind(upsertCycleSQL),
		cycle.ID().String(),
		cycle.UserID().String(),
		sharedDomain.FormatDate(cycle.StartDate()),
		sharedPersistence.NullDate(cycle.EndDate()),
		sharedPersistence.NullPositiveInt(cycle.CycleLength()),
		cycle.IsEstimated(),
		sharedPersistence.FormatTimestamp(cycle.CreatedAt()),
	)
	if err != nil {
		return fmt.Errorf("failed to save cycle: %w", err)
	}
	return nil
}

// FindRecent returns up to limit cycles, most recent start first.
func (r *CycleRepository) FindRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Cycle, error) {
	if limit <= 0 {
		return r.FindByUserID(ctx, userID)
	}
	return r.query(ctx, r.bind(selectCyclesSQL+"\nLIMIT $2"), userID.String(), limit)
}

// FindByUserID returns every cycle of a user, most recent start first.
func (r *CycleRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Cycle, error) {
	return r.query(ctx, r.bind(selectCyclesSQL), userID.String())
}

// Delete removes a cycle owned by userID.
func (r *CycleRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result, err := r.executor(ctx).Exec(ctx, r.bind(deleteCycleSQL), id.String(), userID.String())
	if err != nil {
		return fmt.Errorf("failed to delete cycle: %w", err)
	}
	return database.RequireAffected(result, domain.ErrCycleNotFound)
}

func (r *CycleRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Cycle, error) {
	rows, err := r.executor(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycles: %w", err)
	}
	return database.CollectRows(rows, r.scanCycle)
}

func (r *CycleRepository) scanCycle(row database.Row) (*domain.Cycle, error) {
	var (
		rawID, rawUserID, start, createdAt string
		end                                sql.NullString
		length                             sql.NullInt64
		estimated                          bool
	)
	if err := row.Scan(&rawID, &rawUserID, &start, &end, &length, &estimated, &createdAt); err != nil {
		return nil, err
	}
	return r.rowToCycle(rawID, rawUserID, start, end, length, estimated, createdAt)
}

func (r *CycleRepository) rowToCycle(rawID, rawUserID, start string, end sql.NullString, length sql.NullInt64, estimated bool, createdAt string) (*domain.Cycle, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid cycle id %q: %w", rawID, err)
	}
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", rawUserID, err)
	}
	startDate, err := sharedDomain.ParseDate(start, r.loc)
	if err != nil {
		return nil, err
	}
	endDate, err := sharedPersistence.DateFromNull(end, r.loc)
	if err != nil {
		return nil, err
	}
	created, err := sharedPersistence.ParseTimestamp(createdAt)
	if err != nil {
		return nil, err
	}

	var cycleLength int
	if length.Valid {
		cycleLength = int(length.Int64)
	}

	return domain.RehydrateCycle(id, userID, startDate, endDate, cycleLength, estimated, created), nil
}
