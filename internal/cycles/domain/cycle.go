package domain

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/felixgeelhaar/cyclist/internal/shared/domain"
)

// DefaultPeriodDays is the span assumed when a cycle is logged without an end date.
const DefaultPeriodDays = 5

var (
	ErrEmptyUserID        = errors.New("user id cannot be empty")
	ErrMissingStartDate   = errors.New("start date is required")
	ErrInvalidDateRange   = errors.New("end date cannot be before start date")
	ErrInvalidCycleLength = errors.New("cycle length must be positive")
	ErrCycleAlreadyClosed = errors.New("cycle length already recorded")
	ErrCycleNotFound      = errors.New("cycle not found")
)

// Cycle is one observed menstrual cycle. The cycle length is recorded
// separately from the period span: a cycle is completed once its length
// is observed. Until then it may carry an estimated length.
type Cycle struct {
	id          uuid.UUID
	userID      uuid.UUID
	startDate   time.Time
	endDate     *time.Time
	cycleLength int
	estimated   bool
	createdAt   time.Time
}

// NewCycle records a period starting on start. A nil end defaults to
// DefaultPeriodDays after start. cycleLength may be zero when not yet known.
func NewCycle(userID uuid.UUID, start time.Time, end *time.Time, cycleLength int) (*Cycle, error) {
	if userID == uuid.Nil {
		return nil, ErrEmptyUserID
	}
	if start.IsZero() {
		return nil, ErrMissingStartDate
	}
	if cycleLength < 0 {
		return nil, ErrInvalidCycleLength
	}

	if end == nil {
		e := sharedDomain.AddDays(start, DefaultPeriodDays)
		end = &e
	}
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}

	return &Cycle{
		id:          uuid.New(),
		userID:      userID,
		startDate:   start,
		endDate:     end,
		cycleLength: cycleLength,
		createdAt:   time.Now().UTC(),
	}, nil
}

// RehydrateCycle recreates a cycle from persisted state.
func RehydrateCycle(id, userID uuid.UUID, start time.Time, end *time.Time, cycleLength int, estimated bool, createdAt time.Time) *Cycle {
	return &Cycle{
		id:          id,
		userID:      userID,
		startDate:   start,
		endDate:     end,
		cycleLength: cycleLength,
		estimated:   estimated && cycleLength > 0,
		createdAt:   createdAt,
	}
}

func (c *Cycle) ID() uuid.UUID        { return c.id }
func (c *Cycle) UserID() uuid.UUID    { return c.userID }
func (c *Cycle) StartDate() time.Time { return c.startDate }
func (c *Cycle) EndDate() *time.Time  { return c.endDate }
func (c *Cycle) CycleLength() int     { return c.cycleLength }
func (c *Cycle) CreatedAt() time.Time { return c.createdAt }

// IsCompleted reports whether the cycle length has been observed.
func (c *Cycle) IsCompleted() bool {
	return c.cycleLength > 0 && !c.estimated
}

// IsEstimated reports whether the cycle length is a placeholder awaiting
// the next period start.
func (c *Cycle) IsEstimated() bool { return c.estimated }

// HasLength reports whether the cycle carries an observed or estimated length.
func (c *Cycle) HasLength() bool { return c.cycleLength > 0 }

// Estimate assigns a provisional length to a cycle whose length is not
// yet known. CloseWith later replaces it with the observed length.
func (c *Cycle) Estimate(length int) error {
	if c.IsCompleted() {
		return ErrCycleAlreadyClosed
	}
	if length <= 0 {
		return ErrInvalidCycleLength
	}
	c.cycleLength = length
	c.estimated = true
	return nil
}

// PeriodDays returns the whole days between start and end, or zero without an end.
func (c *Cycle) PeriodDays() int {
	if c.endDate == nil {
		return 0
	}
	return sharedDomain.DaysBetween(c.startDate, *c.endDate)
}

// CloseWith records the cycle length as the days until nextStart,
// replacing any estimate.
func (c *Cycle) CloseWith(nextStart time.Time) error {
	if c.IsCompleted() {
		return ErrCycleAlreadyClosed
	}
	length := sharedDomain.DaysBetween(c.startDate, nextStart)
	if length <= 0 {
		return ErrInvalidCycleLength
	}
	c.cycleLength = length
	c.estimated = false
	return nil
}

// AverageLength returns the rounded mean observed length of the first
// window completed cycles in history, or fallback when none is completed.
// Estimated lengths are ignored.
func AverageLength(history []*Cycle, window, fallback int) int {
	sum, n := 0, 0
	for _, c := range history {
		if !c.IsCompleted() {
			continue
		}
		if window > 0 && n == window {
			break
		}
		sum += c.CycleLength()
		n++
	}
	if n == 0 {
		return fallback
	}
	return int(math.Round(float64(sum) / float64(n)))
}
