package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/anonto42/nano-midea/engagement/internal/metrics"
	"github.com/anonto42/nano-midea/engagement/internal/models"
)

type entry struct {
	user      models.UserCompact
	expiresAt time.Time
}

// UserCache keeps recently rendered user summaries in a bounded LRU with a TTL.
// It is safe for concurrent use.
type UserCache struct {
	lru *lru.Cache[uint, entry]
	ttl time.Duration
	now func() time.Time
}

// NewUserCache creates a cache holding at most size summaries for ttl each.
func NewUserCache(size int, ttl time.Duration) (*UserCache, error) {
	if size <= 0 {
		size = 1
	}
	l, err := lru.New[uint, entry](size)
	if err != nil {
		return nil, err
	}
	return &UserCache{lru: l, ttl: ttl, now: time.Now}, nil
}

// Get returns the cached summary of id, if present and fresh.
func (c *UserCache) Get(id uint) (models.UserCompact, bool) {
	e, ok := c.lru.Get(id)
	if ok && c.now().After(e.expiresAt) {
		c.lru.Remove(id)
		ok = false
	}
	metrics.RecordCacheLookup(ok)
	if !ok {
		return models.UserCompact{}, false
	}
	return e.user, true
}

// Set stores a summary.
func (c *UserCache) Set(user models.UserCompact) {
	c.lru.Add(user.ID, entry{user: user, expiresAt: c.now().Add(c.ttl)})
}

// Invalidate drops the summary of id, e.g. after the user is updated or deleted.
func (c *UserCache) Invalidate(id uint) {
	c.lru.Remove(id)
}

// Len reports the number of cached entries, including expired ones not yet evicted.
func (c *UserCache) Len() int {
	return c.lru.Len()
}
