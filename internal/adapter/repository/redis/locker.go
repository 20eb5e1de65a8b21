package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/iho/opsledger/internal/usecase"
)

// ErrLockNotObtained is returned when the lock is still held by someone
// else after the retry budget.
var ErrLockNotObtained = errors.New("lock not obtained")

// Locker implements usecase.Locker on top of redislock.
type Locker struct {
	client *redislock.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
}

// NewLocker creates a Locker whose locks expire after ttl.
func NewLocker(client *redis.Client, ttl time.Duration) *Locker {
	return &Locker{
		client: redislock.New(client),
		prefix: "opsledger:lock:",
		ttl:    ttl,
		wait:   20 * time.Millisecond,
	}
}

// Obtain takes the lock for key, retrying briefly while it is held.
func (l *Locker) Obtain(ctx context.Context, key string) (usecase.Lock, error) {
	retries := int(l.ttl / l.wait)
	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.wait), retries),
	}

	lock, err := l.client.Obtain(ctx, l.prefix+key, l.ttl, opts)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", ErrLockNotObtained, key)
	}
	if err != nil {
		return nil, err
	}

	return lock, nil
}
