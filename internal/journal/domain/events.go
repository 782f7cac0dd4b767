package domain

import (
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/felixgeelhaar/cyclist/internal/shared/domain"
)

const (
	AggregateTypeEntry = "JournalEntry"

	RoutingKeyEntryRecorded = "journal.entry.recorded"
	RoutingKeyEntryDeleted  = "journal.entry.deleted"
)

// EntryRecorded is the payload of RoutingKeyEntryRecorded. Notes are not
// carried on the bus.
type EntryRecorded struct {
	EntryID  uuid.UUID `json:"entry_id"`
	UserID   uuid.UUID `json:"user_id"`
	Date     string    `json:"date"`
	Symptoms []string  `json:"symptoms"`
	Mood     string    `json:"mood,omitempty"`
	Created  bool      `json:"created"`
}

// EntryDeleted is the payload of RoutingKeyEntryDeleted.
type EntryDeleted struct {
	EntryID uuid.UUID `json:"entry_id"`
	UserID  uuid.UUID `json:"user_id"`
}

// NewEntryRecordedEvent builds the envelope announcing e.
func NewEntryRecordedEvent(e *Entry, created bool, at time.Time) (sharedDomain.Event, error) {
	return sharedDomain.NewEvent(e.ID(), AggregateTypeEntry, RoutingKeyEntryRecorded, at, EntryRecorded{
		EntryID:  e.ID(),
		UserID:   e.UserID(),
		Date:     sharedDomain.FormatDate(e.Date()),
		Symptoms: e.Symptoms(),
		Mood:     e.Mood(),
		Created:  created,
	})
}

// NewEntryDeletedEvent builds the envelope announcing the removal of an entry.
func NewEntryDeletedEvent(userID, entryID uuid.UUID, at time.Time) (sharedDomain.Event, error) {
	return sharedDomain.NewEvent(entryID, AggregateTypeEntry, RoutingKeyEntryDeleted, at,
		EntryDeleted{EntryID: entryID, UserID: userID})
}
