// Package persistence holds column encoders shared by the SQL repositories.
// Dates are stored as YYYY-MM-DD text and instants as RFC 3339 text so one
// schema serves both SQLite and PostgreSQL.
package persistence

import (
	"database/sql"
	"fmt"
	"time"

	sharedDomain "github.com/felixgeelhaar/cyclist/internal/shared/domain"
)

// FormatTimestamp encodes an instant in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTimestamp decodes an instant written by FormatTimestamp.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

// NullDate encodes an optional calendar date.
func NullDate(d *time.Time) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: sharedDomain.FormatDate(*d), Valid: true}
}

// DateFromNull decodes an optional calendar date as midnight in loc.
func DateFromNull(ns sql.NullString, loc *time.Location) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	d, err := sharedDomain.ParseDate(ns.String, loc)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// NullPositiveInt encodes zero or negative values as NULL.
func NullPositiveInt(v int) sql.NullInt64 {
	if v <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(v), Valid: true}
}
