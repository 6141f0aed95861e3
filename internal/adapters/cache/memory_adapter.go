package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/snapmap/storefinder/backend/internal/domain/providers"
)

// MemoryAdapter implements CacheProvider with a bounded in-process LRU.
// It serves tests and single-node deployments where Redis is unavailable;
// entries carry their own deadlines so per-key TTLs behave like Redis.
type MemoryAdapter struct {
	entries *lru.Cache[string, memoryEntry]
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryAdapter creates an in-memory cache adapter holding at most size
// entries
func NewMemoryAdapter(size int) (providers.CacheProvider, error) {
	entries, err := lru.New[string, memoryEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}
	return &MemoryAdapter{entries: entries}, nil
}

// Get retrieves a value from cache
func (a *MemoryAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	entry, ok := a.entries.Get(key)
	if !ok {
		return nil, fmt.Errorf("key not found: %s", key)
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		a.entries.Remove(key)
		return nil, fmt.Errorf("key not found: %s", key)
	}
	return entry.value, nil
}

// Set stores a value in cache with expiration
func (a *MemoryAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	entry := memoryEntry{value: value}
	if expirationSeconds > 0 {
		entry.expiresAt = time.Now().Add(time.Duration(expirationSeconds) * time.Second)
	}
	a.entries.Add(key, entry)
	return nil
}

// Delete removes a value from cache
func (a *MemoryAdapter) Delete(ctx context.Context, key string) error {
	a.entries.Remove(key)
	return nil
}

// Exists checks if a key exists in cache
func (a *MemoryAdapter) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := a.Get(ctx, key); err != nil {
		return false, nil
	}
	return true, nil
}
