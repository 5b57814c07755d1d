package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and single-node
// deployments. Expired entries are dropped lazily on read and by a
// background sweep.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	sets    map[string]memorySet
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

type memorySet struct {
	members   map[string]struct{}
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	ms := &MemoryStore{
		entries: make(map[string]memoryEntry),
		sets:    make(map[string]memorySet),
	}
	go ms.cleanup()
	return ms
}

func (ms *MemoryStore) Get(_ context.Context, key string) Result {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	entry, ok := ms.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return Result{Kind: Miss}
	}
	return Result{Kind: Found, Value: entry.value}
}

func (ms *MemoryStore) SetEx(_ context.Context, key, value string, ttl time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.entries[key] = memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (ms *MemoryStore) Delete(_ context.Context, keys ...string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for _, key := range keys {
		delete(ms.entries, key)
		delete(ms.sets, key)
	}
	return nil
}

func (ms *MemoryStore) AddToSet(_ context.Context, key, member string, ttl time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	set, ok := ms.sets[key]
	if !ok || time.Now().After(set.expiresAt) {
		set = memorySet{members: make(map[string]struct{})}
	}
	set.members[member] = struct{}{}
	set.expiresAt = time.Now().Add(ttl)
	ms.sets[key] = set
	return nil
}

func (ms *MemoryStore) SetMembers(_ context.Context, key string) ([]string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	set, ok := ms.sets[key]
	if !ok || time.Now().After(set.expiresAt) {
		return nil, nil
	}
	members := make([]string, 0, len(set.members))
	for member := range set.members {
		members = append(members, member)
	}
	return members, nil
}

func (ms *MemoryStore) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		ms.mu.Lock()
		for key, entry := range ms.entries {
			if now.After(entry.expiresAt) {
				delete(ms.entries, key)
			}
		}
		for key, set := range ms.sets {
			if now.After(set.expiresAt) {
				delete(ms.sets, key)
			}
		}
		ms.mu.Unlock()
	}
}
