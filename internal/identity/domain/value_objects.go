package domain

import (
	"errors"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrDisplayNameTooLong = errors.New("display name exceeds maximum length")
	ErrInvalidDisplayName = errors.New("display name contains control characters")
)

const (
	// MaxDisplayNameLength caps a display name, counted in characters.
	MaxDisplayNameLength = 120
	// MaxEmailLength is the longest address SMTP can carry in a path.
	MaxEmailLength = 254
)

// Email is a validated, lower-cased address. The zero value means no address.
type Email struct {
	value string
}

// NewEmail validates an address. An empty input yields the zero Email.
func NewEmail(value string) (Email, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return Email{}, nil
	}
	if len(value) > MaxEmailLength {
		return Email{}, ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return Email{}, ErrInvalidEmail
	}
	host := value[strings.LastIndex(value, "@")+1:]
	if !strings.Contains(host, ".") {
		return Email{}, ErrInvalidEmail
	}
	return Email{value: value}, nil
}

func (e Email) String() string { return e.value }

// IsZero reports whether no address is set.
func (e Email) IsZero() bool { return e.value == "" }

// DisplayName is how a user is greeted in notifications.
type DisplayName struct {
	value string
}

// NewDisplayName trims and validates a display name. Empty is allowed.
// The name is written into mail greetings, so line breaks and other control
// characters are rejected.
func NewDisplayName(value string) (DisplayName, error) {
	value = strings.TrimSpace(value)
	if utf8.RuneCountInString(value) > MaxDisplayNameLength {
		return DisplayName{}, ErrDisplayNameTooLong
	}
	if strings.IndexFunc(value, unicode.IsControl) >= 0 {
		return DisplayName{}, ErrInvalidDisplayName
	}
	return DisplayName{value: value}, nil
}

func (n DisplayName) String() string { return n.value }

// OrDefault returns the name, or fallback when empty.
func (n DisplayName) OrDefault(fallback string) string {
	if n.value == "" {
		return fallback
	}
	return n.value
}
