package cache

import (
	"context"
	"sync"
	"time"

	"institute-service/internal/domain/role"
	"institute-service/internal/repository"
)

type roleEntry struct {
	role   role.Role
	expiry time.Time
}

// RoleCache fronts a RoleRepository with a TTL cache of id lookups, which the
// gate performs on every request. Writes through the cache invalidate the
// affected id. Entries changed by another instance stay stale for at most one
// TTL; a stale name only matches grants the rename or delete already removed.
type RoleCache struct {
	repository.RoleRepository

	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	entries map[int64]roleEntry
}

func NewRoleCache(next repository.RoleRepository, ttl time.Duration) *RoleCache {
	return &RoleCache{
		RoleRepository: next,
		ttl:            ttl,
		now:            time.Now,
		entries:        make(map[int64]roleEntry),
	}
}

func (c *RoleCache) GetByID(ctx context.Context, id int64) (*role.Role, error) {
	c.mu.RLock()
	entry, found := c.entries[id]
	c.mu.RUnlock()

	if found && c.now().Before(entry.expiry) {
		rl := entry.role
		return &rl, nil
	}

	rl, err := c.RoleRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[id] = roleEntry{role: *rl, expiry: c.now().Add(c.ttl)}
	c.mu.Unlock()

	return rl, nil
}

// Update and Delete invalidate again once the write returns, so a lookup that
// raced the write cannot leave the old row cached.
func (c *RoleCache) Update(ctx context.Context, id int64, input role.UpdateRoleInput) (*role.Role, error) {
	c.Invalidate(id)
	defer c.Invalidate(id)
	return c.RoleRepository.Update(ctx, id, input)
}

func (c *RoleCache) Delete(ctx context.Context, id int64) error {
	c.Invalidate(id)
	defer c.Invalidate(id)
	return c.RoleRepository.Delete(ctx, id)
}

func (c *RoleCache) Invalidate(id int64) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
}

// Purge drops expired entries.
func (c *RoleCache) Purge() {
	now := c.now()
	c.mu.Lock()
	for id, entry := range c.entries {
		if now.After(entry.expiry) {
			delete(c.entries, id)
		}
	}
	c.mu.Unlock()
}

// Len reports the number of cached entries, expired ones included.
func (c *RoleCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
