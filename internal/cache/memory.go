package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryProvider is an in-process Provider backed by a size-bounded LRU with
// TTL expiration. All entries share the TTL fixed at construction.
type MemoryProvider struct {
	store *expirable.LRU[string, []byte]
}

// NewMemoryProvider creates a provider holding up to size entries for ttl.
func NewMemoryProvider(size int, ttl time.Duration) *MemoryProvider {
	if size <= 0 {
		size = 128
	}
	return &MemoryProvider{store: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

// Get returns the cached value or ErrCacheMiss.
func (p *MemoryProvider) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := p.store.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	return value, nil
}

// Set stores value under key until the provider TTL expires it.
func (p *MemoryProvider) Set(_ context.Context, key string, value []byte) error {
	p.store.Add(key, value)
	return nil
}

// Del removes key, acting as the explicit rebuild trigger.
func (p *MemoryProvider) Del(_ context.Context, key string) error {
	p.store.Remove(key)
	return nil
}

// Close purges all entries.
func (p *MemoryProvider) Close() error {
	p.store.Purge()
	return nil
}
