package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/snapmap/storefinder/backend/internal/domain/entities"
	"github.com/snapmap/storefinder/backend/internal/domain/repositories"
	"github.com/snapmap/storefinder/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/snapmap/storefinder/backend/pkg/errors"
)

// EnrichmentCacheAdapter implements the persistent EnrichmentCacheRepository.
// Entries are kept past their freshness window so the gateway can serve them
// as a degraded fallback; writes supersede, nothing deletes on staleness.
type EnrichmentCacheAdapter struct {
	client *postgres.Client
}

// NewEnrichmentCacheAdapter creates a new enrichment cache adapter
func NewEnrichmentCacheAdapter(client *postgres.Client) repositories.EnrichmentCacheRepository {
	return &EnrichmentCacheAdapter{client: client}
}

// Get returns the entry for key regardless of freshness
func (a *EnrichmentCacheAdapter) Get(ctx context.Context, key string) (*entities.CacheEntry, error) {
	query := `SELECT key, payload, fresh_until, updated_at FROM places_cache_entries WHERE key = $1`

	entry := &entities.CacheEntry{}
	err := a.client.DB().QueryRowContext(ctx, query, key).Scan(
		&entry.Key,
		&entry.Payload,
		&entry.FreshUntil,
		&entry.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no cache entry for key %s", key))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to read cache entry", err)
	}

	return entry, nil
}

// Put upserts a fresh entry for key. Last writer wins.
func (a *EnrichmentCacheAdapter) Put(ctx context.Context, key string, payload json.RawMessage, freshUntil time.Time) error {
	query := `
		INSERT INTO places_cache_entries (key, payload, fresh_until, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET
			payload = EXCLUDED.payload,
			fresh_until = EXCLUDED.fresh_until,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := a.client.DB().ExecContext(ctx, query, key, []byte(payload), freshUntil, time.Now()); err != nil {
		return apperrors.NewInternalError("failed to write cache entry", err)
	}

	return nil
}
