package client

import (
	"context"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"servex-board/domain"
)

// StaffCache memoizes role-scoped staff lookups by role id. Reset is invoked
// on every service change so a new selection never sees the previous
// selection's directory.
type StaffCache interface {
	Get(ctx context.Context, roleID string) ([]domain.StaffMember, bool)
	Put(ctx context.Context, roleID string, staff []domain.StaffMember)
	Reset(ctx context.Context)
}

// MemoryStaffCache is the default per-session cache.
type MemoryStaffCache struct {
	mu      sync.RWMutex
	entries map[string][]domain.StaffMember
}

// NewMemoryStaffCache creates an empty in-memory cache.
func NewMemoryStaffCache() *MemoryStaffCache {
	return &MemoryStaffCache{entries: make(map[string][]domain.StaffMember)}
}

func (c *MemoryStaffCache) Get(_ context.Context, roleID string) ([]domain.StaffMember, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	staff, ok := c.entries[roleID]
	if !ok {
		return nil, false
	}
	out := make([]domain.StaffMember, len(staff))
	copy(out, staff)
	return out, true
}

func (c *MemoryStaffCache) Put(_ context.Context, roleID string, staff []domain.StaffMember) {
	stored := make([]domain.StaffMember, len(staff))
	copy(stored, staff)
	c.mu.Lock()
	c.entries[roleID] = stored
	c.mu.Unlock()
}

func (c *MemoryStaffCache) Reset(_ context.Context) {
	c.mu.Lock()
	c.entries = make(map[string][]domain.StaffMember)
	c.mu.Unlock()
}

// RedisStaffCache shares the role staff directory across dashboard sessions.
// A nil client or zero TTL degrades to a pass-through; Redis failures and
// corrupt entries count as misses so the caller falls back to the API.
type RedisStaffCache struct {
	client *redis.Client
	ttl    time.Duration

	mu      sync.Mutex
	touched map[string]struct{}
}

// NewRedisStaffCache creates a cache using the provided Redis client and TTL.
func NewRedisStaffCache(client *redis.Client, ttl time.Duration) *RedisStaffCache {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStaffCache{
		client:  client,
		ttl:     ttl,
		touched: make(map[string]struct{}),
	}
}

func (c *RedisStaffCache) Get(ctx context.Context, roleID string) ([]domain.StaffMember, bool) {
	if c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, staffCacheKey(roleID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			_ = c.client.Del(ctx, staffCacheKey(roleID)).Err()
		}
		return nil, false
	}
	var staff []domain.StaffMember
	if err := sonic.Unmarshal(data, &staff); err != nil {
		_ = c.client.Del(ctx, staffCacheKey(roleID)).Err()
		return nil, false
	}
	return staff, true
}

func (c *RedisStaffCache) Put(ctx context.Context, roleID string, staff []domain.StaffMember) {
	if c.client == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(staff)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, staffCacheKey(roleID), data, c.ttl).Err(); err != nil {
		return
	}
	c.mu.Lock()
	c.touched[roleID] = struct{}{}
	c.mu.Unlock()
}

// Reset drops the entries this session wrote. Entries written by other
// sessions stay and age out by TTL.
func (c *RedisStaffCache) Reset(ctx context.Context) {
	if c.client == nil {
		return
	}
	c.mu.Lock()
	keys := make([]string, 0, len(c.touched))
	for roleID := range c.touched {
		keys = append(keys, staffCacheKey(roleID))
	}
	c.touched = make(map[string]struct{})
	c.mu.Unlock()
	if len(keys) > 0 {
		_, _ = c.client.Del(ctx, keys...).Result()
	}
}

func staffCacheKey(roleID string) string {
	return "staff:" + roleID
}
