package translator

import (
	"sort"
	"sync"
	"time"

	"mtd/pkg/types"
)

// cacheEntry stores one translated result plus access bookkeeping.
type cacheEntry struct {
	result      types.TranslateResult
	lastAccess  time.Time
	accessCount uint64
}

// Cache is the translation result cache keyed by (src, tgt, text). Hits are
// O(1); when the cache exceeds its budget the oldest quarter of entries by
// last access is evicted in one sweep.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	maxSize int
	enabled bool
	hits    uint64
	misses  uint64
}

// NewCache builds a cache with the given budget. A non-positive maxSize
// disables caching outright.
func NewCache(enabled bool, maxSize int) *Cache {
	if maxSize <= 0 {
		enabled = false
	}
	return &Cache{
		entries: make(map[string]*cacheEntry),
		maxSize: maxSize,
		enabled: enabled,
	}
}

func cacheKey(pair types.LanguagePair, text string) string {
	return pair.Key() + "\x00" + text
}

// Get returns a copy of the cached result for (pair, text) and refreshes its
// access bookkeeping.
func (c *Cache) Get(pair types.LanguagePair, text string) (types.TranslateResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return types.TranslateResult{}, false
	}
	e, ok := c.entries[cacheKey(pair, text)]
	if !ok {
		c.misses++
		return types.TranslateResult{}, false
	}
	c.hits++
	e.lastAccess = time.Now()
	e.accessCount++
	return cloneResult(e.result), true
}

// Put stores a result. Entries over budget trigger eviction of the oldest
// 25% by last access.
func (c *Cache) Put(pair types.LanguagePair, text string, res types.TranslateResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	c.entries[cacheKey(pair, text)] = &cacheEntry{
		result:     cloneResult(res),
		lastAccess: time.Now(),
	}
	if len(c.entries) > c.maxSize {
		c.evictOldestLocked(len(c.entries) / 4)
	}
}

// evictOldestLocked removes the n least recently accessed entries. Caller
// holds c.mu.
func (c *Cache) evictOldestLocked(n int) {
	if n < 1 {
		n = 1
	}
	type aged struct {
		key  string
		last time.Time
	}
	all := make([]aged, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, aged{k, e.lastAccess})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].last.Before(all[j].last) })
	if n > len(all) {
		n = len(all)
	}
	for _, a := range all[:n] {
		delete(c.entries, a.key)
	}
}

// Clear drops every entry but keeps hit statistics.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

// Reconfigure applies a new enabled flag and budget. Disabling clears the
// cache; shrinking evicts down to the new budget.
func (c *Cache) Reconfigure(enabled bool, maxSize int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if maxSize <= 0 {
		enabled = false
	}
	c.enabled = enabled
	c.maxSize = maxSize
	if !enabled {
		c.entries = make(map[string]*cacheEntry)
		return
	}
	if over := len(c.entries) - maxSize; over > 0 {
		c.evictOldestLocked(over)
	}
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// HitRate is hits/(hits+misses); zero before any lookup.
func (c *Cache) HitRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}

// cloneResult deep-copies the slices so cached entries never alias caller
// data.
func cloneResult(r types.TranslateResult) types.TranslateResult {
	out := r
	if r.WordConfidences != nil {
		out.WordConfidences = append([]float64(nil), r.WordConfidences...)
	}
	if r.Alternatives != nil {
		out.Alternatives = append([]types.Alternative(nil), r.Alternatives...)
	}
	if r.Quality != nil {
		q := *r.Quality
		if q.WordConfidences != nil {
			q.WordConfidences = append([]float64(nil), q.WordConfidences...)
		}
		if q.Issues != nil {
			q.Issues = append([]string(nil), q.Issues...)
		}
		out.Quality = &q
	}
	return out
}
