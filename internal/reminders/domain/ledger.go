package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/felixgeelhaar/cyclist/internal/shared/domain"
)

// FireLedger records reminders that were already delivered so a repeated
// tick for the same minute does not send twice.
type FireLedger interface {
	// Claim marks key as fired for ttl. It returns false if key was already claimed.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// FireKey identifies one delivery of a rule for one forecasted event.
func FireKey(userID, ruleID uuid.UUID, eventType EventType, eventDate time.Time) string {
	return fmt.Sprintf("reminders:fired:%s:%s:%s:%s", userID, ruleID, eventType, sharedDomain.FormatDate(eventDate))
}
