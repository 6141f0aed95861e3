package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/snapmap/storefinder/backend/internal/domain/entities"
)

// EnrichmentCacheRepository is the persistent cache for metered places API
// responses. Get returns stale entries too; staleness is the caller's call.
type EnrichmentCacheRepository interface {
	// Get returns the entry for key regardless of freshness, or a not-found
	// error if no entry exists
	Get(ctx context.Context, key string) (*entities.CacheEntry, error)

	// Put upserts a fresh entry for key. Last writer wins; concurrent writes
	// are both individually valid upstream responses.
	Put(ctx context.Context, key string, payload json.RawMessage, freshUntil time.Time) error
}
