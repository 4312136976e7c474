package analysis

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/QTest-hq/codescope/pkg/model"
)

// Cache keeps finished file analyses keyed by path, language and content.
// Entries are evicted first-in first-out once the bound is reached. Cached
// analyses are shared between callers and must not be modified.
type Cache struct {
	mu      sync.Mutex
	max     int
	entries map[uint64]*model.FileAnalysis
	order   []uint64
	hits    uint64
	misses  uint64
}

// NewCache creates a cache holding at most max entries; max <= 0 disables it
func NewCache(max int) *Cache {
	return &Cache{
		max:     max,
		entries: make(map[uint64]*model.FileAnalysis),
	}
}

// CacheKey hashes everything an analysis depends on
func CacheKey(file model.SourceFile) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(file.Path)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(string(file.Language))
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(file.Content)
	return d.Sum64()
}

// Get returns the cached analysis for key
func (c *Cache) Get(key uint64) (*model.FileAnalysis, bool) {
	if c == nil || c.max <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fa, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return fa, ok
}

// Put stores an analysis, evicting the oldest entry when full
func (c *Cache) Put(key uint64, fa *model.FileAnalysis) {
	if c == nil || c.max <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		c.entries[key] = fa
		return
	}
	for len(c.order) >= c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = fa
	c.order = append(c.order, key)
}

// Len returns the number of cached entries
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns hit and miss counts
func (c *Cache) Stats() (hits, misses uint64) {
	if c == nil {
		return 0, 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
