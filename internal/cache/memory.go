package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	values    []string
	expiresAt time.Time
}

// MemoryLists is an in-process list cache with TTL expiry. It backs the
// failover path when Redis is down or disabled.
type MemoryLists struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemoryLists(ttl time.Duration) *MemoryLists {
	return &MemoryLists{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
	}
}

func (m *MemoryLists) Get(_ context.Context, key string) ([]string, bool) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.values, true
}

func (m *MemoryLists) Set(_ context.Context, key string, values []string) error {
	copied := append([]string(nil), values...)
	m.mu.Lock()
	m.entries[key] = memoryEntry{values: copied, expiresAt: time.Now().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryLists) Invalidate(_ context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
	return nil
}
