// Package ledger records which reminders have already fired so a restarted
// or duplicated worker does not send them twice.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLedger claims fire keys with SET NX.
type RedisLedger struct {
	client redis.Cmdable
}

// NewRedisLedger creates a ledger on client.
func NewRedisLedger(client redis.Cmdable) *RedisLedger {
	return &RedisLedger{client: client}
}

// Claim returns true if key was not claimed before.
func (l *RedisLedger) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim %s: %w", key, err)
	}
	return ok, nil
}
