package registry

import (
	"context"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of documents kept by the default cache.
const DefaultCacheSize = 128

// Cache stores raw registry documents keyed by URL.
type Cache interface {
	Get(ctx context.Context, url string) ([]byte, bool, error)
	Put(ctx context.Context, url string, data []byte) error
}

// Compile-time interface compliance checks
var _ Cache = NoopCache{}
var _ Cache = (*LRUCache)(nil)

// NoopCache discards all writes and always misses.
type NoopCache struct{}

// Get always returns a cache miss.
func (NoopCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

// Put discards the document.
func (NoopCache) Put(context.Context, string, []byte) error {
	return nil
}

// LRUCache is a bounded in-memory cache safe for concurrent use.
type LRUCache struct {
	items *lru.Cache[string, []byte]
}

// NewLRUCache creates a cache holding at most size documents.
func NewLRUCache(size int) (*LRUCache, error) {
	items, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &LRUCache{items: items}, nil
}

// Get returns a copy of the cached document.
func (c *LRUCache) Get(_ context.Context, url string) ([]byte, bool, error) {
	data, ok := c.items.Get(url)
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(data), true, nil
}

// Put stores a copy of data.
func (c *LRUCache) Put(_ context.Context, url string, data []byte) error {
	c.items.Add(url, slices.Clone(data))
	return nil
}

// Len returns the number of cached documents.
func (c *LRUCache) Len() int {
	return c.items.Len()
}

// Purge removes every document.
func (c *LRUCache) Purge() {
	c.items.Purge()
}
