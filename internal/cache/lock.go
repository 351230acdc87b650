package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLockNotAcquired = errors.New("event sync lock not acquired")

// Locker guards remote-sync critical sections per event, so the API server
// and the sync worker never push the same event to the provider at once.
type Locker interface {
	WithEventLock(ctx context.Context, eventID uuid.UUID, fn func(ctx context.Context) error) error
}

type redisEventLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewEventLocker creates a locker that uses a per-event Redis key.
func NewEventLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisEventLocker{
		client: client,
		ttl:    ttl,
	}
}

func (l *redisEventLocker) WithEventLock(ctx context.Context, eventID uuid.UUID, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:event:%s", eventID.String())
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire event lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisEventLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release event lock: %w", err)
	}
	return nil
}
