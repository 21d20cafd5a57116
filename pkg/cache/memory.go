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

// MemoryStore in-process Store, used when Redis is not configured.
type MemoryStore struct {
	entries sync.Map
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.entries.Load(key)
	if !ok {
		return nil, false, nil
	}
	entry := v.(memoryEntry)
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		m.entries.Delete(key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.entries.Store(key, entry)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.entries.Delete(key)
	return nil
}

func (m *MemoryStore) Close() error {
	m.entries.Range(func(key, _ any) bool {
		m.entries.Delete(key)
		return true
	})
	return nil
}
