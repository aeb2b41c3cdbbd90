package auth

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const denylistPrefix = "denylist:"

// Denylist records revoked token ids until they would have expired anyway
type Denylist interface {
	Add(ctx context.Context, jti string, ttl time.Duration) error
	Contains(ctx context.Context, jti string) (bool, error)
}

// RedisDenylist stores revoked ids in Redis with a TTL
type RedisDenylist struct {
	client *redis.Client
}

// NewRedisDenylist creates a Redis-backed denylist
func NewRedisDenylist(client *redis.Client) *RedisDenylist {
	return &RedisDenylist{client: client}
}

func (d *RedisDenylist) Add(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, denylistPrefix+jti, 1, ttl).Err()
}

func (d *RedisDenylist) Contains(ctx context.Context, jti string) (bool, error) {
	n, err := d.client.Exists(ctx, denylistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryDenylist is the single-instance fallback used when Redis is disabled
type MemoryDenylist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryDenylist creates an in-process denylist
func NewMemoryDenylist() *MemoryDenylist {
	return &MemoryDenylist{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (d *MemoryDenylist) Add(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for k, exp := range d.entries {
		if !exp.After(now) {
			delete(d.entries, k)
		}
	}
	d.entries[jti] = now.Add(ttl)
	return nil
}

func (d *MemoryDenylist) Contains(_ context.Context, jti string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	exp, ok := d.entries[jti]
	if !ok {
		return false, nil
	}
	if !exp.After(d.now()) {
		delete(d.entries, jti)
		return false, nil
	}
	return true, nil
}
