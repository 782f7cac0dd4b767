package domain

import (
	"fmt"
	"html"
	"time"
)

// ProductName appears in subjects and signatures.
const ProductName = "Spot On"

// eventDateLayout renders dates like "Mon Apr 29 2024".
const eventDateLayout = "Mon Jan 02 2006"

// Notification is a rendered reminder message.
type Notification struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// NewNotification renders the reminder for rule's event on eventDate.
func NewNotification(contact Contact, eventType EventType, eventDate time.Time) Notification {
	name := contact.DisplayName
	if name == "" {
		name = "there"
	}
	when := eventDate.Format(eventDateLayout)

	return Notification{
		To:      contact.Email,
		Subject: fmt.Sprintf("%s — %s reminder", ProductName, eventType.Label()),
		TextBody: fmt.Sprintf("Hi %s,\n\nThis is a reminder: your predicted %s is on %s.\n\nSent by %s.",
			name, eventType, when, ProductName),
		HTMLBody: fmt.Sprintf("<p>Hi %s,</p><p>This is a reminder: your predicted <strong>%s</strong> is on <strong>%s</strong>.</p><p>— %s</p>",
			html.EscapeString(name), eventType, when, ProductName),
	}
}
