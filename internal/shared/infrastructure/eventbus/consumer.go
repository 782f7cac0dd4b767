package eventbus

import (
	"context"
	"strings"

	"github.com/felixgeelhaar/cyclist/internal/shared/domain"
)

// EventConsumer reacts to cycle, journal and reminder events.
type EventConsumer interface {
	// EventTypes returns the routing-key patterns this consumer is bound to,
	// e.g. "reminders.notification.sent" or "journal.*.*".
	EventTypes() []string

	Handle(ctx context.Context, event *domain.Event) error
}

// Consumer receives events from a broker and hands them to its consumers.
type Consumer interface {
	// Start blocks until ctx is cancelled or the broker goes away.
	Start(ctx context.Context) error
	RegisterConsumer(consumer EventConsumer)
	Close() error
}

// MatchTopic reports whether routingKey matches pattern using AMQP topic
// rules: words are dot separated, "*" matches exactly one word and "#"
// matches zero or more.
func MatchTopic(pattern, routingKey string) bool {
	return matchWords(strings.Split(pattern, "."), strings.Split(routingKey, "."))
}

func matchWords(pattern, key []string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case "#":
			if len(pattern) == 1 {
				return true
			}
			for i := 0; i <= len(key); i++ {
				if matchWords(pattern[1:], key[i:]) {
					return true
				}
			}
			return false
		case "*":
			if len(key) == 0 {
				return false
			}
		default:
			if len(key) == 0 || key[0] != pattern[0] {
				return false
			}
		}
		pattern, key = pattern[1:], key[1:]
	}
	return len(key) == 0
}
