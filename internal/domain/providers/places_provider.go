package providers

import (
	"context"
	"encoding/json"
)

// Places API operation SKUs. Each has its own price per 1000 calls and
// free-tier allowance.
const (
	PlacesOpTextSearch   = "text_search"
	PlacesOpPlaceDetails = "place_details"
)

// PlacesProvider is the metered external places API. Payloads are opaque
// upstream JSON; every successful call is billable once the free tier for
// its operation is exhausted.
type PlacesProvider interface {
	// TextSearch finds place candidates for a free-text query
	TextSearch(ctx context.Context, query, region string) (json.RawMessage, error)

	// PlaceDetails fetches the requested fields for a single place
	PlaceDetails(ctx context.Context, placeID string, fields []string) (json.RawMessage, error)
}
