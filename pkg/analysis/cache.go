package analysis

import "sync"

// CacheManager is a process-local store of completed analyses keyed by
// (branch, contributor). Entries never expire and are never evicted; the
// practical key space is the handful of combinations explored in one
// session. Safe for concurrent use; results are deep-copied in both
// directions so no caller can mutate a cached entry.
type CacheManager struct {
	mu      sync.RWMutex
	results map[CacheKey]*AnalysisResult
}

// NewCacheManager creates an empty cache.
func NewCacheManager() *CacheManager {
	return &CacheManager{
		results: make(map[CacheKey]*AnalysisResult),
	}
}

// Get returns a deep copy of the cached result for key, or nil and false
// on a miss.
func (c *CacheManager) Get(key CacheKey) (*AnalysisResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result, found := c.results[key]
	if !found {
		return nil, false
	}

	return result.Clone(), true
}

// Put stores a deep copy of result under key, overwriting any previous
// entry. The insert is atomic with respect to other cache operations.
func (c *CacheManager) Put(key CacheKey, result *AnalysisResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.results[key] = result.Clone()
}

// Len returns the number of cached entries.
func (c *CacheManager) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.results)
}

// Clear removes all entries.
func (c *CacheManager) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.results = make(map[CacheKey]*AnalysisResult)
}
