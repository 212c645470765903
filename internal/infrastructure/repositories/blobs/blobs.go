// Package blobs holds Git blob helpers shared by the backends.
package blobs

import (
	"github.com/go-git/go-git/v5/plumbing"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of blobs kept in memory per backend.
const DefaultCacheSize = 256

// SHA returns the Git blob hash of data, the same value the hosting
// services report for a committed file.
func SHA(data []byte) string {
	return plumbing.ComputeHash(plumbing.BlobObject, data).String()
}

// Cache keeps recently downloaded blobs keyed by blob SHA.
type Cache struct {
	entries *lru.Cache[string, []byte]
}

// NewCache creates a cache holding up to size blobs.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, []byte](size)
	if err != nil {
		// lru.New only fails for non-positive sizes
		panic(err)
	}
	return &Cache{entries: entries}
}

// Get returns a cached blob.
func (c *Cache) Get(sha string) ([]byte, bool) {
	if sha == "" {
		return nil, false
	}
	return c.entries.Get(sha)
}

// Add stores a blob.
func (c *Cache) Add(sha string, data []byte) {
	if sha == "" {
		return
	}
	c.entries.Add(sha, data)
}

// Fetch returns the cached blob or loads, caches and returns it.
func (c *Cache) Fetch(sha string, load func() ([]byte, error)) ([]byte, error) {
	if data, ok := c.Get(sha); ok {
		return data, nil
	}
	data, err := load()
	if err != nil {
		return nil, err
	}
	c.Add(sha, data)
	return data, nil
}
