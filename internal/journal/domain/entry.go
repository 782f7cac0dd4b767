package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MaxSymptoms      = 20
	MaxSymptomLength = 40
	MaxMoodLength    = 40
	MaxNotesLength   = 2000
)

var (
	ErrEmptyUserID       = errors.New("user id cannot be empty")
	ErrMissingDate       = errors.New("date is required")
	ErrTooManySymptoms   = errors.New("too many symptoms")
	ErrSymptomTooLong    = errors.New("symptom exceeds maximum length")
	ErrMoodTooLong       = errors.New("mood exceeds maximum length")
	ErrNotesTooLong      = errors.New("notes exceed maximum length")
	ErrEntryNotFound     = errors.New("journal entry not found")
	ErrDateAlreadyLogged = errors.New("an entry for that date already exists")
)

// Entry is one day of symptom, mood and note tracking. A user has at most
// one entry per calendar date.
type Entry struct {
	id        uuid.UUID
	userID    uuid.UUID
	date      time.Time
	symptoms  []string
	mood      string
	notes     string
	createdAt time.Time
	updatedAt time.Time
}

// NewEntry creates an entry for the calendar date of date.
func NewEntry(userID uuid.UUID, date time.Time, symptoms []string, mood, notes string) (*Entry, error) {
	if userID == uuid.Nil {
		return nil, ErrEmptyUserID
	}
	if date.IsZero() {
		return nil, ErrMissingDate
	}

	now := time.Now().UTC()
	e := &Entry{
		id:        uuid.New(),
		userID:    userID,
		date:      date,
		createdAt: now,
		updatedAt: now,
	}
	if err := e.Update(symptoms, mood, notes); err != nil {
		return nil, err
	}
	return e, nil
}

// RehydrateEntry recreates an entry from persisted state.
func RehydrateEntry(id, userID uuid.UUID, date time.Time, symptoms []string, mood, notes string, createdAt, updatedAt time.Time) *Entry {
	return &Entry{
		id:        id,
		userID:    userID,
		date:      date,
		symptoms:  symptoms,
		mood:      mood,
		notes:     notes,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (e *Entry) ID() uuid.UUID        { return e.id }
func (e *Entry) UserID() uuid.UUID    { return e.userID }
func (e *Entry) Date() time.Time      { return e.date }
func (e *Entry) Mood() string         { return e.mood }
func (e *Entry) Notes() string        { return e.notes }
func (e *Entry) CreatedAt() time.Time { return e.createdAt }
func (e *Entry) UpdatedAt() time.Time { return e.updatedAt }

// Symptoms returns a copy of the recorded symptoms.
func (e *Entry) Symptoms() []string {
	out := make([]string, len(e.symptoms))
	copy(out, e.symptoms)
	return out
}

// Update replaces the tracked values. Symptoms are trimmed, lowercased and
// deduplicated in input order; blanks are dropped.
func (e *Entry) Update(symptoms []string, mood, notes string) error {
	cleaned, err := normalizeSymptoms(symptoms)
	if err != nil {
		return err
	}
	mood = strings.TrimSpace(mood)
	if len(mood) > MaxMoodLength {
		return ErrMoodTooLong
	}
	notes = strings.TrimSpace(notes)
	if len(notes) > MaxNotesLength {
		return ErrNotesTooLong
	}

	e.symptoms = cleaned
	e.mood = mood
	e.notes = notes
	e.updatedAt = time.Now().UTC()
	return nil
}

// MoveTo changes the entry's calendar date.
func (e *Entry) MoveTo(date time.Time) error {
	if date.IsZero() {
		return ErrMissingDate
	}
	e.date = date
	e.updatedAt = time.Now().UTC()
	return nil
}

func normalizeSymptoms(symptoms []string) ([]string, error) {
	seen := make(map[string]struct{}, len(symptoms))
	out := make([]string, 0, len(symptoms))
	for _, s := range symptoms {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if len(s) > MaxSymptomLength {
			return nil, ErrSymptomTooLong
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if len(out) > MaxSymptoms {
		return nil, ErrTooManySymptoms
	}
	return out, nil
}
