package ledger

import (
	"context"
	"sync"
	"time"

	sharedDomain "github.com/felixgeelhaar/cyclist/internal/shared/domain"
)

// InMemoryLedger is a process-local ledger. It only guards against
// duplicates within one process.
type InMemoryLedger struct {
	mu      sync.Mutex
	expires map[string]time.Time
	clock   sharedDomain.Clock
}

// NewInMemoryLedger creates an empty in-memory ledger.
func NewInMemoryLedger(clock sharedDomain.Clock) *InMemoryLedger {
	if clock == nil {
		clock = sharedDomain.SystemClock{}
	}
	return &InMemoryLedger{
		expires: make(map[string]time.Time),
		clock:   clock,
	}
}

// Claim returns true if key is unclaimed or its previous claim has expired.
// A zero ttl never expires.
func (l *InMemoryLedger) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.evict(now)

	if _, ok := l.expires[key]; ok {
		return false, nil
	}

	var expiry time.Time
	if ttl > 0 {
		expiry = now.Add(ttl)
	}
	l.expires[key] = expiry
	return true, nil
}

// Len returns the number of live claims.
func (l *InMemoryLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evict(l.clock.Now())
	return len(l.expires)
}

func (l *InMemoryLedger) evict(now time.Time) {
	for key, expiry := range l.expires {
		if !expiry.IsZero() && !now.Before(expiry) {
			delete(l.expires, key)
		}
	}
}
