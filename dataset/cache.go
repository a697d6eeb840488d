package dataset

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// ============================================================================
// DATASET CACHE
// ============================================================================
// Entries are keyed by path and modification time. Rewriting the file changes
// the key, so the next Get reloads it and evicts the stale entry.
// ============================================================================

// Cache holds loaded tables.
type Cache struct {
	src   Source
	items *cache.Cache

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewCache creates a cache reading through src. ttl <= 0 keeps entries until
// they are invalidated.
func NewCache(src Source, ttl time.Duration) *Cache {
	if src == nil {
		src = FileSource{}
	}
	expiry := cache.NoExpiration
	cleanup := time.Duration(0)
	if ttl > 0 {
		expiry = ttl
		cleanup = 2 * ttl
	}
	return &Cache{
		src:   src,
		items: cache.New(expiry, cleanup),
		locks: make(map[string]*sync.Mutex),
	}
}

func cacheKey(path string, modTime time.Time) string {
	return fmt.Sprintf("%s@%d", path, modTime.UnixNano())
}

func pathPrefix(path string) string {
	return path + "@"
}

// Get returns the table for path, loading it when the path is new or the
// source has been modified since the cached load.
func (c *Cache) Get(ctx context.Context, path string) (*Table, error) {
	modTime, err := c.src.Stat(ctx, path)
	if err != nil {
		return nil, err
	}
	key := cacheKey(path, modTime)
	if v, ok := c.items.Get(key); ok {
		return v.(*Table), nil
	}

	lock := c.pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	// Another caller may have loaded it while we waited.
	if v, ok := c.items.Get(key); ok {
		return v.(*Table), nil
	}

	t, err := load(ctx, c.src, path, modTime)
	if err != nil {
		return nil, err
	}
	if n := c.evict(path); n > 0 {
		log.Printf("🔄 Dataset %s changed on disk, replaced %d cached version(s)", path, n)
	}
	c.items.SetDefault(key, t)
	return t, nil
}

// Peek returns the most recently loaded table for path without touching the
// source.
func (c *Cache) Peek(path string) (*Table, bool) {
	var latest *Table
	for k, item := range c.items.Items() {
		if !strings.HasPrefix(k, pathPrefix(path)) {
			continue
		}
		t := item.Object.(*Table)
		if latest == nil || t.LoadedAt.After(latest.LoadedAt) {
			latest = t
		}
	}
	return latest, latest != nil
}

// Invalidate drops every cached version of path.
func (c *Cache) Invalidate(path string) {
	n := c.evict(path)
	log.Printf("🧹 Invalidated %d cached version(s) of %s", n, path)
}

// Flush drops every cached table.
func (c *Cache) Flush() {
	c.items.Flush()
}

func (c *Cache) evict(path string) int {
	n := 0
	for k := range c.items.Items() {
		if strings.HasPrefix(k, pathPrefix(path)) {
			c.items.Delete(k)
			n++
		}
	}
	return n
}

func (c *Cache) pathLock(path string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[path]
	if !ok {
		l = &sync.Mutex{}
		c.locks[path] = l
	}
	return l
}
