package mail

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/cyclist/internal/reminders/domain"
)

// LogDispatcher logs notifications instead of sending them. Used when no
// SMTP relay is configured.
type LogDispatcher struct {
	logger *slog.Logger
}

// NewLogDispatcher creates a new LogDispatcher.
func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDispatcher{logger: logger}
}

// Dispatch logs n.
func (d *LogDispatcher) Dispatch(ctx context.Context, n domain.Notification) error {
	d.logger.InfoContext(ctx, "mail not sent (smtp not configured)",
		"to", n.To,
		"subject", n.Subject,
		"body", n.TextBody,
	)
	return nil
}
