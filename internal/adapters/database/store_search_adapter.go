package database

import (
	"context"

	"github.com/lib/pq"
	"github.com/snapmap/storefinder/backend/internal/domain/repositories"
	"github.com/snapmap/storefinder/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/snapmap/storefinder/backend/pkg/errors"
)

// StoreSearchAdapter implements StoreSearchRepository against the two data
// service RPCs exposed by the store database.
type StoreSearchAdapter struct {
	client *postgres.Client
}

// NewStoreSearchAdapter creates a new store search adapter
func NewStoreSearchAdapter(client *postgres.Client) repositories.StoreSearchRepository {
	return &StoreSearchAdapter{client: client}
}

// SmartSearch calls the smart_store_search fuzzy text RPC
func (a *StoreSearchAdapter) SmartSearch(ctx context.Context, params repositories.SmartSearchParams) ([]repositories.SmartSearchRow, error) {
	query := `
		SELECT id, name, street, city, state, zip_code, store_type,
		       latitude, longitude, incentive_program, similarity
		FROM smart_store_search($1, $2, $3, $4, $5, $6)
	`

	rows, err := a.client.DB().QueryContext(ctx, query,
		params.SearchText,
		params.SearchCity,
		params.SearchState,
		params.SearchZip,
		params.SimilarityThreshold,
		params.ResultLimit,
	)
	if err != nil {
		return nil, apperrors.NewUpstreamQueryError("smart store search failed", err)
	}
	defer rows.Close()

	var results []repositories.SmartSearchRow
	for rows.Next() {
		var row repositories.SmartSearchRow
		err := rows.Scan(
			&row.ID,
			&row.Name,
			&row.Street,
			&row.City,
			&row.State,
			&row.ZipCode,
			&row.StoreType,
			&row.Latitude,
			&row.Longitude,
			&row.IncentiveProgram,
			&row.Similarity,
		)
		if err != nil {
			return nil, apperrors.NewUpstreamQueryError("failed to scan smart search row", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewUpstreamQueryError("smart store search failed", err)
	}

	return results, nil
}

// GetNearby calls the get_nearby_stores proximity RPC
func (a *StoreSearchAdapter) GetNearby(ctx context.Context, params repositories.NearbyParams) ([]repositories.NearbyRow, error) {
	query := `
		SELECT id, name, street, city, state, zip_code, store_type,
		       latitude, longitude, incentive_program, distance_miles
		FROM get_nearby_stores($1, $2, $3, $4, $5)
	`

	// A nil type list means no filter; pq encodes it as SQL NULL.
	var storeTypes interface{}
	if params.StoreTypes != nil {
		storeTypes = pq.Array(params.StoreTypes)
	}

	rows, err := a.client.DB().QueryContext(ctx, query,
		params.UserLat,
		params.UserLng,
		params.RadiusMiles,
		storeTypes,
		params.ResultLimit,
	)
	if err != nil {
		return nil, apperrors.NewUpstreamQueryError("nearby store search failed", err)
	}
	defer rows.Close()

	var results []repositories.NearbyRow
	for rows.Next() {
		var row repositories.NearbyRow
		err := rows.Scan(
			&row.ID,
			&row.Name,
			&row.Street,
			&row.City,
			&row.State,
			&row.ZipCode,
			&row.StoreType,
			&row.Latitude,
			&row.Longitude,
			&row.IncentiveProgram,
			&row.DistanceMiles,
		)
		if err != nil {
			return nil, apperrors.NewUpstreamQueryError("failed to scan nearby row", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewUpstreamQueryError("nearby store search failed", err)
	}

	return results, nil
}
