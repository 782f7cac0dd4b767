package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/database"
)

// timeLayout is fixed width so stored instants compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

const (
	insertMessageSQL = `
INSERT INTO outbox (event_id, aggregate_type, aggregate_id, routing_key, payload, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	selectDueSQL = `
SELECT id, event_id, aggregate_type, aggregate_id, routing_key, payload, created_at,
       retry_count, next_retry_at, last_error
FROM outbox
WHERE published_at IS NULL
  AND dead_lettered_at IS NULL
  AND (next_retry_at IS NULL OR next_retry_at <= $1)
ORDER BY id
LIMIT $2`

	markPublishedSQL = `UPDATE outbox SET published_at = $1 WHERE id = $2`

	markFailedSQL = `
UPDATE outbox
SET retry_count = retry_count + 1, last_error = $1, next_retry_at = $2
WHERE id = $3`

	markDeadSQL = `
UPDATE outbox
SET retry_count = retry_count + 1, last_error = $1, dead_letter_reason = $1, dead_lettered_at = $2
WHERE id = $3`

	deleteOldSQL = `DELETE FROM outbox WHERE published_at IS NOT NULL AND published_at < $1`
)

// SQLRepository implements Repository on the shared database layer, for
// both SQLite and PostgreSQL.
type SQLRepository struct {
	conn database.Connection
	uow  database.UnitOfWork
	now  func() time.Time
}

// NewSQLRepository creates a new outbox repository.
func NewSQLRepository(conn database.Connection) *SQLRepository {
	return &SQLRepository{
		conn: conn,
		uow:  database.NewUnitOfWork(conn),
		now:  time.Now,
	}
}

func (r *SQLRepository) executor(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *SQLRepository) bind(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// Save stores a new outbox message.
func (r *SQLRepository) Save(ctx context.Context, msg *Message) error {
	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}
	_, err := r.executor(ctx).Exec(ctx, r.bind(insertMessageSQL),
		msg.EventID.String(),
		msg.AggregateType,
		msg.AggregateID.String(),
		msg.RoutingKey,
		string(msg.Payload),
		formatTime(createdAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save outbox message %s: %w", msg.RoutingKey, err)
	}
	return nil
}

// SaveBatch stores multiple outbox messages atomically, joining the
// transaction in ctx when there is one.
func (r *SQLRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}
	return database.WithUnitOfWork(ctx, r.uow, func(txCtx context.Context) error {
		for _, msg := range msgs {
			if err := r.Save(txCtx, msg); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetUnpublished retrieves messages that are due for publishing, oldest first.
func (r *SQLRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	rows, err := r.executor(ctx).Query(ctx, r.bind(selectDueSQL), formatTime(r.now()), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load outbox messages: %w", err)
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		var (
			msg         Message
			eventID     string
			aggregateID string
			payload     string
			createdAt   string
			nextRetryAt sql.NullString
			lastError   sql.NullString
		)
		if err := rows.Scan(&msg.ID, &eventID, &msg.AggregateType, &aggregateID, &msg.RoutingKey,
			&payload, &createdAt, &msg.RetryCount, &nextRetryAt, &lastError); err != nil {
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}

		if msg.EventID, err = uuid.Parse(eventID); err != nil {
			return nil, fmt.Errorf("outbox message %d: %w", msg.ID, err)
		}
		if msg.AggregateID, err = uuid.Parse(aggregateID); err != nil {
			return nil, fmt.Errorf("outbox message %d: %w", msg.ID, err)
		}
		if msg.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("outbox message %d: %w", msg.ID, err)
		}
		if nextRetryAt.Valid {
			t, err := time.Parse(timeLayout, nextRetryAt.String)
			if err != nil {
				return nil, fmt.Errorf("outbox message %d: %w", msg.ID, err)
			}
			msg.NextRetryAt = &t
		}
		if lastError.Valid {
			msg.LastError = &lastError.String
		}
		msg.Payload = []byte(payload)
		msgs = append(msgs, &msg)
	}
	return msgs, rows.Err()
}

// MarkPublished marks a message as successfully published.
func (r *SQLRepository) MarkPublished(ctx context.Context, id int64) error {
	_, err := r.executor(ctx).Exec(ctx, r.bind(markPublishedSQL), formatTime(r.now()), id)
	return err
}

// MarkFailed records a publish failure with error message.
func (r *SQLRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	_, err := r.executor(ctx).Exec(ctx, r.bind(markFailedSQL), errMsg, formatTime(nextRetryAt), id)
	return err
}

// MarkDead marks a message as dead-lettered.
func (r *SQLRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	_, err := r.executor(ctx).Exec(ctx, r.bind(markDeadSQL), reason, formatTime(r.now()), id)
	return err
}

// DeleteOld removes successfully published messages older than the retention period.
func (r *SQLRepository) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := r.now().AddDate(0, 0, -olderThanDays)
	result, err := r.executor(ctx).Exec(ctx, r.bind(deleteOldSQL), formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to delete old outbox messages: %w", err)
	}
	return result.RowsAffected()
}
