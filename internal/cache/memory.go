package cache

import (
	"bytes"
	"context"
	"io"
	"slices"
	"strings"
	"sync"
)

// InMemoryCache keeps entries in process memory. Used when STORAGE_MEMORY
// is set and throughout the tests.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

var _ ListCache = (*InMemoryCache)(nil)

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{entries: make(map[string][]byte)}
}

func (c *InMemoryCache) Get(_ context.Context, key string) (io.ReadCloser, error) {
	c.mu.RLock()
	value, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	// entries are never mutated in place, so readers can share the slice
	return io.NopCloser(bytes.NewReader(value)), nil
}

func (c *InMemoryCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[key]
	return ok, nil
}

func (c *InMemoryCache) Put(_ context.Context, key, value string, opts PutOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, taken := c.entries[key]; taken && opts.Condition == PutIfNoneMatch {
		return ErrAlreadyExists
	}
	c.entries[key] = []byte(value)
	return nil
}

func (c *InMemoryCache) List(_ context.Context, prefix string, _ string) ([]string, error) {
	c.mu.RLock()
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		if rest, ok := strings.CutPrefix(key, prefix); ok {
			keys = append(keys, rest)
		}
	}
	c.mu.RUnlock()
	slices.Sort(keys)
	return keys, nil
}
