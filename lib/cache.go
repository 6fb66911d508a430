package lib

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheResult is a CacheEntry (spec.md §3): exactly one of Artifacts or
// Diagnostics is set, the successful or failing outcome of one compile.
type CacheResult struct {
	Artifacts   *CompilationArtifacts
	Diagnostics []UserCodeError
}

// Cache is the pluggable key->Result store C6 drives (spec.md §4.6). The
// core stores both success and failure results so repeated compilation of a
// known-bad program is a pure lookup.
type Cache interface {
	Has(key string) (bool, error)
	Get(key string) (*CacheResult, error)
	Put(key string, result *CacheResult) error
}

// CacheKey computes the SHA1 hex digest spec.md §3 mandates:
// SHA1(userSource || \x01 || returnType || \x01 || join(\x01, argTypes) || \x01 || join(\x01, auxTexts)).
func CacheKey(userSource, expectedReturnType string, expectedArgTypes []string, auxTexts []string) string {
	var b strings.Builder
	b.WriteString(userSource)
	b.WriteByte(1)
	b.WriteString(expectedReturnType)
	b.WriteByte(1)
	b.WriteString(strings.Join(expectedArgTypes, "\x01"))
	b.WriteByte(1)
	b.WriteString(strings.Join(auxTexts, "\x01"))

	sum := sha1.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// MemoryCache is the unbounded testing implementation (spec.md §4.6):
// every entry lives forever, good for tests but not long-running processes.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*CacheResult
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: map[string]*CacheResult{}}
}

func (c *MemoryCache) Has(key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok, nil
}

func (c *MemoryCache) Get(key string) (*CacheResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[key], nil
}

func (c *MemoryCache) Put(key string, result *CacheResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = result
	return nil
}

// ttlEntry pairs a cached result with the time it becomes stale.
type ttlEntry struct {
	result    *CacheResult
	expiresAt time.Time
}

// LRUCache is the default cache (spec.md §4.6): bounded by entry count,
// with an optional TTL after which an entry is treated as a miss even
// though it still occupies a slot until evicted by the LRU itself.
type LRUCache struct {
	mu  sync.Mutex
	lru *lru.Cache[string, ttlEntry]
	ttl time.Duration
}

// NewLRUCache builds a default compilation cache holding up to size entries,
// each expiring ttl after insertion. A zero ttl means entries never expire.
func NewLRUCache(size int, ttl time.Duration) (*LRUCache, error) {
	c, err := lru.New[string, ttlEntry](size)
	if err != nil {
		return nil, err
	}
	return &LRUCache{lru: c, ttl: ttl}, nil
}

func (c *LRUCache) Has(key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lru.Peek(key)
	if !ok || c.expired(e) {
		return false, nil
	}
	return true, nil
}

func (c *LRUCache) Get(key string) (*CacheResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lru.Get(key)
	if !ok || c.expired(e) {
		return nil, nil
	}
	return e.result, nil
}

func (c *LRUCache) Put(key string, result *CacheResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := ttlEntry{result: result}
	if c.ttl > 0 {
		e.expiresAt = time.Now().Add(c.ttl)
	}
	c.lru.Add(key, e)
	return nil
}

func (c *LRUCache) expired(e ttlEntry) bool {
	return !e.expiresAt.IsZero() && time.Now().After(e.expiresAt)
}
