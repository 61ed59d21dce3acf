package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Lock is a best-effort distributed lock over SetNX. It keeps a second
// worker process from driving the schedule concurrently; job watermarks
// remain the correctness guard, the lock only avoids wasted work.
type Lock struct {
	cache    *Cache
	resource string
	token    string
	ttl      time.Duration
}

// NewLock creates a lock for the named resource.
func NewLock(cache *Cache, resource string, ttl time.Duration) *Lock {
	if ttl <= 0 {
		ttl = TTLSchedulerLock
	}
	return &Lock{
		cache:    cache,
		resource: resource,
		token:    uuid.NewString(),
		ttl:      ttl,
	}
}

// Acquire attempts to take the lock. Returns false if another holder
// currently owns it.
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.cache.SetNX(ctx, LockKey(l.resource), l.token, l.ttl)
	if err != nil {
		return false, fmt.Errorf("lock %s: %w", l.resource, err)
	}
	return ok, nil
}

// Refresh extends the lock while a long job runs. Only the holder's
// token is extended; a lock lost to TTL expiry is not re-taken.
func (l *Lock) Refresh(ctx context.Context) error {
	var current string
	if err := l.cache.Get(ctx, LockKey(l.resource), &current); err != nil {
		return fmt.Errorf("lock %s: %w", l.resource, err)
	}
	if current != l.token {
		return fmt.Errorf("lock %s: held by another process", l.resource)
	}
	return l.cache.Set(ctx, LockKey(l.resource), l.token, l.ttl)
}

// Release drops the lock if this instance still holds it.
func (l *Lock) Release(ctx context.Context) error {
	var current string
	if err := l.cache.Get(ctx, LockKey(l.resource), &current); err != nil {
		if err == ErrCacheMiss {
			return nil
		}
		return err
	}
	if current != l.token {
		return nil
	}
	return l.cache.Delete(ctx, LockKey(l.resource))
}
