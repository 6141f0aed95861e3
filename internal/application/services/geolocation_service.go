package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/snapmap/storefinder/backend/internal/domain/providers"
	"github.com/snapmap/storefinder/backend/internal/infrastructure/observability"
	apperrors "github.com/snapmap/storefinder/backend/pkg/errors"
)

// SessionGeolocationService caches one resolved location per session. The
// first IP resolution in a session pays for the lookup; subsequent reads are
// cache hits. A GPS-sourced location pinned by the client always outranks an
// IP-sourced one and is never overwritten by a slower IP resolution that was
// already in flight.
type SessionGeolocationService struct {
	provider   providers.GeolocationProvider
	cache      providers.CacheProvider
	ttlSeconds int
}

// NewSessionGeolocationService creates a new session geolocation service
func NewSessionGeolocationService(provider providers.GeolocationProvider, cache providers.CacheProvider, ttlSeconds int) *SessionGeolocationService {
	return &SessionGeolocationService{
		provider:   provider,
		cache:      cache,
		ttlSeconds: ttlSeconds,
	}
}

// Resolve returns the session's location, resolving the IP only on a cache
// miss
func (s *SessionGeolocationService) Resolve(ctx context.Context, sessionID, ip string) (*providers.ResolvedLocation, error) {
	if sessionID == "" {
		return nil, apperrors.NewValidationError("session id is required")
	}

	key := sessionKey(sessionID)
	if cached, ok := s.readSession(ctx, key); ok {
		return cached, nil
	}

	resolved, err := s.provider.ResolveIP(ctx, ip)
	if err != nil {
		return nil, apperrors.NewEnrichmentUpstreamError("ip geolocation failed", err)
	}

	// A GPS pin may have landed while the IP lookup was in flight; it wins.
	if cached, ok := s.readSession(ctx, key); ok && cached.Source == providers.GeoSourceGPS {
		return cached, nil
	}

	s.writeSession(ctx, key, resolved)
	return resolved, nil
}

// PinGPS stores a browser-GPS location for the session, overriding any
// IP-sourced entry
func (s *SessionGeolocationService) PinGPS(ctx context.Context, sessionID string, lat, lng float64) (*providers.ResolvedLocation, error) {
	if sessionID == "" {
		return nil, apperrors.NewValidationError("session id is required")
	}

	resolved := &providers.ResolvedLocation{
		Latitude:  lat,
		Longitude: lng,
		Source:    providers.GeoSourceGPS,
	}
	s.writeSession(ctx, sessionKey(sessionID), resolved)
	return resolved, nil
}

func (s *SessionGeolocationService) readSession(ctx context.Context, key string) (*providers.ResolvedLocation, bool) {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}

	var resolved providers.ResolvedLocation
	if err := json.Unmarshal(data, &resolved); err != nil {
		return nil, false
	}
	return &resolved, true
}

func (s *SessionGeolocationService) writeSession(ctx context.Context, key string, resolved *providers.ResolvedLocation) {
	data, err := json.Marshal(resolved)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttlSeconds); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("session geolocation cache write failed")
	}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("geo:session:%s", sessionID)
}
