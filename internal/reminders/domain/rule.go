package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"

	cyclesDomain "github.com/felixgeelhaar/cyclist/internal/cycles/domain"
	sharedDomain "github.com/felixgeelhaar/cyclist/internal/shared/domain"
)

// DefaultDaysBefore is the lead time applied when a rule does not set one.
const DefaultDaysBefore = 2

var (
	ErrEmptyUserID        = errors.New("user id cannot be empty")
	ErrInvalidEventType   = errors.New("reminder type must be period or ovulation")
	ErrInvalidMethod      = errors.New("unsupported delivery method")
	ErrNegativeDaysBefore = errors.New("days before cannot be negative")
)

// EventType is the forecasted event a rule reminds about.
type EventType string

const (
	EventPeriod    EventType = "period"
	EventOvulation EventType = "ovulation"
)

// IsValid checks if the event type is known.
func (e EventType) IsValid() bool {
	switch e {
	case EventPeriod, EventOvulation:
		return true
	default:
		return false
	}
}

// Label is the capitalized name used in message subjects.
func (e EventType) Label() string {
	switch e {
	case EventPeriod:
		return "Period"
	case EventOvulation:
		return "Ovulation"
	default:
		return string(e)
	}
}

// Method is how a reminder is delivered.
type Method string

const (
	MethodEmail Method = "email"
)

// IsValid checks if the method is supported.
func (m Method) IsValid() bool {
	return m == MethodEmail
}

// Rule is a user's instruction to be notified daysBefore an event at a time of day.
type Rule struct {
	id         uuid.UUID
	userID     uuid.UUID
	eventType  EventType
	daysBefore int
	timeOfDay  TimeOfDay
	method     Method
	enabled    bool
	createdAt  time.Time
}

// NewRule creates a validated reminder rule.
func NewRule(userID uuid.UUID, eventType EventType, daysBefore int, timeOfDay TimeOfDay, method Method, enabled bool) (*Rule, error) {
	if userID == uuid.Nil {
		return nil, ErrEmptyUserID
	}
	if !eventType.IsValid() {
		return nil, ErrInvalidEventType
	}
	if daysBefore < 0 {
		return nil, ErrNegativeDaysBefore
	}
	if method == "" {
		method = MethodEmail
	}
	if !method.IsValid() {
		return nil, ErrInvalidMethod
	}

	return &Rule{
		id:         uuid.New(),
		userID:     userID,
		eventType:  eventType,
		daysBefore: daysBefore,
		timeOfDay:  timeOfDay,
		method:     method,
		enabled:    enabled,
		createdAt:  time.Now().UTC(),
	}, nil
}

// RehydrateRule recreates a rule from persisted state without validation.
func RehydrateRule(id, userID uuid.UUID, eventType EventType, daysBefore int, timeOfDay TimeOfDay, method Method, enabled bool, createdAt time.Time) *Rule {
	return &Rule{
		id:         id,
		userID:     userID,
		eventType:  eventType,
		daysBefore: daysBefore,
		timeOfDay:  timeOfDay,
		method:     method,
		enabled:    enabled,
		createdAt:  createdAt,
	}
}

func (r *Rule) ID() uuid.UUID        { return r.id }
func (r *Rule) UserID() uuid.UUID    { return r.userID }
func (r *Rule) Type() EventType      { return r.eventType }
func (r *Rule) DaysBefore() int      { return r.daysBefore }
func (r *Rule) TimeOfDay() TimeOfDay { return r.timeOfDay }
func (r *Rule) Method() Method       { return r.method }
func (r *Rule) Enabled() bool        { return r.enabled }
func (r *Rule) CreatedAt() time.Time { return r.createdAt }

// EventDate resolves the forecasted date this rule targets. It returns
// false for event types the forecast does not carry.
func (r *Rule) EventDate(f cyclesDomain.Forecast) (time.Time, bool) {
	switch r.eventType {
	case EventPeriod:
		return f.NextPeriodStart, true
	case EventOvulation:
		return f.OvulationDate, true
	default:
		return time.Time{}, false
	}
}

// FireAt is the instant the reminder for eventDate is due: daysBefore days
// earlier at the rule's time of day in loc, seconds zeroed.
func (r *Rule) FireAt(eventDate time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	day := sharedDomain.AddDays(time.Date(eventDate.Year(), eventDate.Month(), eventDate.Day(), 0, 0, 0, 0, loc), -r.daysBefore)
	return time.Date(day.Year(), day.Month(), day.Day(), r.timeOfDay.hour, r.timeOfDay.minute, 0, 0, loc)
}

// SameMinute reports whether a and b share year, month, day, hour and minute in loc.
func SameMinute(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	a, b = a.In(loc), b.In(loc)
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day() &&
		a.Hour() == b.Hour() && a.Minute() == b.Minute()
}
