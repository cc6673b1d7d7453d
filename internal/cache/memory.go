package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is a process-local Cache used when no redis address is configured.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	gens    map[string]int64
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		gens:    make(map[string]int64),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key]
	if !ok || !m.now().Before(entry.expiresAt) {
		return nil, ErrCacheMiss
	}
	return entry.value, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry{value: value, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryCache) Generation(_ context.Context, key string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.gens[key], nil
}

func (m *MemoryCache) SetAt(_ context.Context, key string, gen int64, value []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gens[key] != gen {
		return false, nil
	}
	m.entries[key] = memoryEntry{value: value, expiresAt: m.now().Add(m.ttl)}
	return true, nil
}

func (m *MemoryCache) Invalidate(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	m.gens[key]++
}
