package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/nano-midea/engagement/internal/models"
)

func TestUserCache(t *testing.T) {
	c, err := NewUserCache(2, time.Minute)
	require.NoError(t, err)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	t.Run("returns stored summaries", func(t *testing.T) {
		c.Set(models.UserCompact{ID: 1, Name: "alice"})
		u, ok := c.Get(1)
		require.True(t, ok)
		assert.Equal(t, "alice", u.Name)
	})

	t.Run("evicts least recently used", func(t *testing.T) {
		c.Set(models.UserCompact{ID: 2, Name: "bob"})
		c.Set(models.UserCompact{ID: 3, Name: "carol"})
		_, ok := c.Get(1)
		assert.False(t, ok)
		assert.Equal(t, 2, c.Len())
	})

	t.Run("expires after ttl", func(t *testing.T) {
		now = now.Add(2 * time.Minute)
		_, ok := c.Get(3)
		assert.False(t, ok)
	})

	t.Run("invalidate removes entry", func(t *testing.T) {
		c.Set(models.UserCompact{ID: 4, Name: "dave"})
		c.Invalidate(4)
		_, ok := c.Get(4)
		assert.False(t, ok)
	})
}
