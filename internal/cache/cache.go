// Package cache is the service's best-effort local persistence, backed by
// Redis: the provider authorization state and a fallback snapshot of the
// event list. It is a cache, not a transactional store; every miss or
// write failure is recoverable from the primary database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carebridge/calsync/internal/provider"
)

const (
	authStateKey     = "calsync:auth_state"
	eventSnapshotKey = "calsync:events:snapshot"

	snapshotTTL = 24 * time.Hour
)

type Cache struct {
	client *redis.Client
}

func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// LoadAuthState returns nil with no error when no state is stored.
func (c *Cache) LoadAuthState(ctx context.Context) (*provider.AuthState, error) {
	data, err := c.client.Get(ctx, authStateKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load auth state: %w", err)
	}

	var st provider.AuthState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode auth state: %w", err)
	}
	return &st, nil
}

func (c *Cache) SaveAuthState(ctx context.Context, st *provider.AuthState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode auth state: %w", err)
	}
	if err := c.client.Set(ctx, authStateKey, data, 0).Err(); err != nil {
		return fmt.Errorf("save auth state: %w", err)
	}
	return nil
}

func (c *Cache) ClearAuthState(ctx context.Context) error {
	if err := c.client.Del(ctx, authStateKey).Err(); err != nil {
		return fmt.Errorf("clear auth state: %w", err)
	}
	return nil
}

// SaveEventSnapshot stores a fallback copy of the event list. The value is
// JSON-encoded; callers pass the same type to LoadEventSnapshot.
func (c *Cache) SaveEventSnapshot(ctx context.Context, events any) error {
	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encode event snapshot: %w", err)
	}
	if err := c.client.Set(ctx, eventSnapshotKey, data, snapshotTTL).Err(); err != nil {
		return fmt.Errorf("save event snapshot: %w", err)
	}
	return nil
}

// LoadEventSnapshot decodes the stored snapshot into dest and reports
// whether one was present.
func (c *Cache) LoadEventSnapshot(ctx context.Context, dest any) (bool, error) {
	data, err := c.client.Get(ctx, eventSnapshotKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("load event snapshot: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode event snapshot: %w", err)
	}
	return true, nil
}
