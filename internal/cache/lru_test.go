package cache

import (
	"strings"
	"testing"

	"github.com/hupe1980/dehnvol/internal/resource"
	"github.com/stretchr/testify/assert"
)

func TestLRU(t *testing.T) {
	t.Run("Eviction", func(t *testing.T) {
		c := NewLRU(30, nil)
		c.Set("a", make([]byte, 10))
		c.Set("b", make([]byte, 10))
		c.Set("c", make([]byte, 10))

		// Touch a so b becomes the eviction candidate.
		_, ok := c.Get("a")
		assert.True(t, ok)

		c.Set("d", make([]byte, 10))
		_, ok = c.Get("b")
		assert.False(t, ok)
		assert.Equal(t, int64(30), c.Size())
		assert.Equal(t, 3, c.Len())

		hits, misses := c.Stats()
		assert.Equal(t, int64(1), hits)
		assert.Equal(t, int64(1), misses)
	})

	t.Run("TooLarge", func(t *testing.T) {
		c := NewLRU(50, nil)
		c.Set("big", make([]byte, 60))
		_, ok := c.Get("big")
		assert.False(t, ok, "Item > capacity should not be cached")
	})

	t.Run("Replace", func(t *testing.T) {
		rc := resource.NewController(resource.Config{MemoryLimitBytes: 100})
		c := NewLRU(50, rc)
		c.Set("k", make([]byte, 10))
		c.Set("k", make([]byte, 20))
		assert.Equal(t, int64(20), c.Size())
		assert.Equal(t, int64(20), rc.MemoryUsage())

		c.Set("k", make([]byte, 5))
		assert.Equal(t, int64(5), c.Size())
		assert.Equal(t, int64(5), rc.MemoryUsage())
	})

	t.Run("ControllerLimit", func(t *testing.T) {
		rc := resource.NewController(resource.Config{MemoryLimitBytes: 10})
		c := NewLRU(50, rc)
		c.Set("a", make([]byte, 8))
		c.Set("b", make([]byte, 8))

		_, ok := c.Get("b")
		assert.False(t, ok)
		assert.Equal(t, int64(8), rc.MemoryUsage())
	})

	t.Run("Invalidate", func(t *testing.T) {
		rc := resource.NewController(resource.Config{})
		c := NewLRU(100, rc)
		c.Set("sym/a.yaml", []byte("a"))
		c.Set("sym/b.yaml", []byte("b"))
		c.Set("vol/m004.json", []byte("v"))

		c.Invalidate(func(key string) bool { return strings.HasPrefix(key, "sym/") })
		assert.Equal(t, 1, c.Len())
		assert.Equal(t, int64(1), rc.MemoryUsage())
	})
}
