package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidTimeOfDay is returned for times that are not HH:MM on a 24h clock.
var ErrInvalidTimeOfDay = errors.New("time of day must be HH:MM (24h)")

// DefaultTimeOfDay is used when a rule carries no usable time.
var DefaultTimeOfDay = TimeOfDay{hour: 20, minute: 0}

// TimeOfDay is a wall-clock hour and minute.
type TimeOfDay struct {
	hour   int
	minute int
}

// NewTimeOfDay validates hour and minute.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: %02d:%02d", ErrInvalidTimeOfDay, hour, minute)
	}
	return TimeOfDay{hour: hour, minute: minute}, nil
}

// ParseTimeOfDay parses "HH:MM" on a 24h clock. The hour may be a single
// digit; the minute must be two digits. Signs and other characters are
// rejected.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) < 1 || len(hh) > 2 || len(mm) != 2 || !allDigits(hh) || !allDigits(mm) {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	hour, _ := strconv.Atoi(hh)
	minute, _ := strconv.Atoi(mm)
	return NewTimeOfDay(hour, minute)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// TimeOfDayOrDefault parses s and falls back to DefaultTimeOfDay when it is
// empty or malformed.
func TimeOfDayOrDefault(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		return DefaultTimeOfDay
	}
	return t
}

func (t TimeOfDay) Hour() int   { return t.hour }
func (t TimeOfDay) Minute() int { return t.minute }

// String renders the time as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.hour, t.minute)
}
