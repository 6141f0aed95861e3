package geolocation

import (
	"context"

	"github.com/snapmap/storefinder/backend/internal/domain/providers"
)

// MockGeolocationProvider implements a mock geolocation provider for testing
type MockGeolocationProvider struct{}

// NewMockGeolocationProvider creates a new mock geolocation provider
func NewMockGeolocationProvider() providers.GeolocationProvider {
	return &MockGeolocationProvider{}
}

// ResolveIP returns a fixed location regardless of the IP
func (m *MockGeolocationProvider) ResolveIP(ctx context.Context, ip string) (*providers.ResolvedLocation, error) {
	return &providers.ResolvedLocation{
		Latitude:  30.2672,
		Longitude: -97.7431,
		City:      "Austin",
		State:     "TX",
		Source:    providers.GeoSourceIP,
	}, nil
}
