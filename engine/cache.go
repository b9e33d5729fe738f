package engine

import (
	"crypto/sha256"
	"sync"
	"time"
)

type contentHash [sha256.Size]byte

func hashContent(data []byte) contentHash {
	return sha256.Sum256(data)
}

type cacheEntry struct {
	hash      contentHash
	result    *Result
	createdAt time.Time
}

// Cache remembers the result of each fixture file for as long as its
// content does not change. Cached results are shared and must not be
// modified.
type Cache struct {
	entries map[string]cacheEntry
	mutex   sync.RWMutex
	maxAge  time.Duration
	now     func() time.Time
}

// NewCache returns an empty cache. Entries older than maxAge are dropped;
// zero keeps them forever.
func NewCache(maxAge time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		maxAge:  maxAge,
		now:     time.Now,
	}
}

func (c *Cache) Get(filename string, hash contentHash) (*Result, bool) {
	c.mutex.RLock()
	entry, exists := c.entries[filename]
	c.mutex.RUnlock()
	if !exists {
		return nil, false
	}

	if c.isEntryInvalid(entry, hash) {
		c.mutex.Lock()
		delete(c.entries, filename)
		c.mutex.Unlock()
		return nil, false
	}
	return entry.result, true
}

func (c *Cache) isEntryInvalid(entry cacheEntry, hash contentHash) bool {
	// too old
	if c.maxAge > 0 && c.now().Sub(entry.createdAt) > c.maxAge {
		return true
	}
	return entry.hash != hash
}

func (c *Cache) Set(filename string, hash contentHash, result *Result) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[filename] = cacheEntry{hash: hash, result: result, createdAt: c.now()}
}

func (c *Cache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}

func (c *Cache) InvalidateAll() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]cacheEntry)
}
