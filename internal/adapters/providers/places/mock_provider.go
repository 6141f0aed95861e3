package places

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/snapmap/storefinder/backend/internal/domain/providers"
)

// MockPlacesProvider implements a mock places provider for development and
// testing without spending budget
type MockPlacesProvider struct{}

// NewMockPlacesProvider creates a new mock places provider
func NewMockPlacesProvider() providers.PlacesProvider {
	return &MockPlacesProvider{}
}

// TextSearch returns a canned candidate list echoing the query
func (m *MockPlacesProvider) TextSearch(ctx context.Context, query, region string) (json.RawMessage, error) {
	payload := map[string]interface{}{
		"status": "OK",
		"results": []map[string]interface{}{
			{
				"place_id":          "mock-" + strings.ReplaceAll(strings.ToLower(query), " ", "-"),
				"name":              query,
				"formatted_address": "123 Main St, Springfield",
				"rating":            4.2,
			},
		},
	}
	return json.Marshal(payload)
}

// PlaceDetails returns canned details containing only the requested fields
func (m *MockPlacesProvider) PlaceDetails(ctx context.Context, placeID string, fields []string) (json.RawMessage, error) {
	known := map[string]interface{}{
		"name":                   "Mock Store",
		"rating":                 4.2,
		"formatted_phone_number": "(555) 010-1234",
		"opening_hours":          map[string]interface{}{"open_now": true},
		"website":                "https://example.com",
	}

	result := map[string]interface{}{"place_id": placeID}
	for _, f := range fields {
		if v, ok := known[f]; ok {
			result[f] = v
		}
	}
	if len(fields) == 0 {
		for k, v := range known {
			result[k] = v
		}
	}

	return json.Marshal(map[string]interface{}{
		"status": "OK",
		"result": result,
	})
}
