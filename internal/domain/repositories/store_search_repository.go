package repositories

import (
	"context"
	"database/sql"
)

// SmartSearchParams are the arguments of the smart_store_search data service
// RPC: fuzzy text match optionally filtered by city/state/zip.
type SmartSearchParams struct {
	SearchText          string
	SearchCity          string
	SearchState         string
	SearchZip           string
	SimilarityThreshold float64
	ResultLimit         int
}

// NearbyParams are the arguments of the get_nearby_stores data service RPC:
// proximity filter with precomputed distance. StoreTypes nil means no type
// filter.
type NearbyParams struct {
	UserLat     float64
	UserLng     float64
	RadiusMiles float64
	StoreTypes  []string
	ResultLimit int
}

// SmartSearchRow is the direct-table row shape returned by smart_store_search.
// Coordinates are nullable; distance is never present, the caller computes
// it when an origin is known.
type SmartSearchRow struct {
	ID               string
	Name             string
	Street           string
	City             string
	State            string
	ZipCode          string
	StoreType        string
	Latitude         sql.NullFloat64
	Longitude        sql.NullFloat64
	IncentiveProgram sql.NullString
	Similarity       float64
}

// NearbyRow is the snake_case row shape returned by get_nearby_stores, with
// the RPC's own geometrically exact distance_miles.
type NearbyRow struct {
	ID               string
	Name             string
	Street           string
	City             string
	State            string
	ZipCode          string
	StoreType        string
	Latitude         float64
	Longitude        float64
	IncentiveProgram sql.NullString
	DistanceMiles    float64
}

// StoreSearchRepository is the contract of the opaque store data service.
// Both operations surface RPC failures as typed upstream query errors; no
// retries happen at this layer.
type StoreSearchRepository interface {
	// SmartSearch calls the fuzzy text-search RPC
	SmartSearch(ctx context.Context, params SmartSearchParams) ([]SmartSearchRow, error)

	// GetNearby calls the proximity RPC
	GetNearby(ctx context.Context, params NearbyParams) ([]NearbyRow, error)
}
