package domain

import (
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/felixgeelhaar/cyclist/internal/shared/domain"
)

const (
	// AggregateTypeCycle tags events raised for cycles.
	AggregateTypeCycle = "Cycle"

	RoutingKeyCycleLogged  = "cycles.cycle.logged"
	RoutingKeyCycleDeleted = "cycles.cycle.deleted"
)

// CycleLogged is the payload of RoutingKeyCycleLogged.
type CycleLogged struct {
	CycleID     uuid.UUID `json:"cycle_id"`
	UserID      uuid.UUID `json:"user_id"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date,omitempty"`
	CycleLength int       `json:"cycle_length,omitempty"`
	Estimated   bool      `json:"length_estimated,omitempty"`
	// ClosedCycleID is set when logging closed the previous open cycle.
	ClosedCycleID *uuid.UUID `json:"closed_cycle_id,omitempty"`
	ClosedLength  int        `json:"closed_length,omitempty"`
}

// CycleDeleted is the payload of RoutingKeyCycleDeleted.
type CycleDeleted struct {
	CycleID uuid.UUID `json:"cycle_id"`
	UserID  uuid.UUID `json:"user_id"`
}

// NewCycleLoggedEvent builds the envelope announcing c.
func NewCycleLoggedEvent(c *Cycle, closed *Cycle, at time.Time) (sharedDomain.Event, error) {
	payload := CycleLogged{
		CycleID:     c.ID(),
		UserID:      c.UserID(),
		StartDate:   sharedDomain.FormatDate(c.StartDate()),
		CycleLength: c.CycleLength(),
		Estimated:   c.IsEstimated(),
	}
	if c.EndDate() != nil {
		payload.EndDate = sharedDomain.FormatDate(*c.EndDate())
	}
	if closed != nil {
		id := closed.ID()
		payload.ClosedCycleID = &id
		payload.ClosedLength = closed.CycleLength()
	}
	return sharedDomain.NewEvent(c.ID(), AggregateTypeCycle, RoutingKeyCycleLogged, at, payload)
}

// NewCycleDeletedEvent builds the envelope announcing the removal of a cycle.
func NewCycleDeletedEvent(userID, cycleID uuid.UUID, at time.Time) (sharedDomain.Event, error) {
	return sharedDomain.NewEvent(cycleID, AggregateTypeCycle, RoutingKeyCycleDeleted, at,
		CycleDeleted{CycleID: cycleID, UserID: userID})
}
