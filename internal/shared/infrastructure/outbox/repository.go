package outbox

import (
	"context"
	"time"
)

// Writer is what command handlers record events through. SaveBatch joins
// the unit of work carried by ctx, so a cycle, rule or journal change and
// its events commit together.
type Writer interface {
	SaveBatch(ctx context.Context, msgs []*Message) error
}

// Repository is the relay's view of the outbox table. Ids are the
// table's sequence numbers.
type Repository interface {
	Writer
	Save(ctx context.Context, msg *Message) error

	// GetUnpublished returns up to limit messages that are neither published
	// nor dead-lettered and whose retry time has passed, oldest first.
	GetUnpublished(ctx context.Context, limit int) ([]*Message, error)

	MarkPublished(ctx context.Context, id int64) error
	// MarkFailed counts an attempt and defers the next one to nextRetryAt.
	MarkFailed(ctx context.Context, id int64, err string, nextRetryAt time.Time) error
	// MarkDead parks a message that exhausted its attempts.
	MarkDead(ctx context.Context, id int64, reason string) error

	// DeleteOld removes published messages older than olderThanDays.
	DeleteOld(ctx context.Context, olderThanDays int) (int64, error)
}
