package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/snapmap/storefinder/backend/internal/api/handlers"
	"github.com/snapmap/storefinder/backend/internal/application/services"
	"github.com/snapmap/storefinder/backend/internal/domain/providers"
	apperrors "github.com/snapmap/storefinder/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGeoProvider struct {
	lastIP string
}

func (s *stubGeoProvider) ResolveIP(ctx context.Context, ip string) (*providers.ResolvedLocation, error) {
	s.lastIP = ip
	return &providers.ResolvedLocation{
		Latitude: 30.2672, Longitude: -97.7431,
		City: "Austin", State: "TX",
		Source: providers.GeoSourceIP,
	}, nil
}

type stubCacheProvider struct {
	data map[string][]byte
}

func (s *stubCacheProvider) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := s.data[key]; ok {
		return v, nil
	}
	return nil, apperrors.NewNotFoundError("key not found")
}

func (s *stubCacheProvider) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	s.data[key] = value
	return nil
}

func (s *stubCacheProvider) Delete(ctx context.Context, key string) error {
	delete(s.data, key)
	return nil
}

func (s *stubCacheProvider) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := s.data[key]
	return ok, nil
}

func newGeolocationHandler() (*handlers.GeolocationHandler, *stubGeoProvider) {
	provider := &stubGeoProvider{}
	service := services.NewSessionGeolocationService(
		provider,
		&stubCacheProvider{data: make(map[string][]byte)},
		3600,
	)
	return handlers.NewGeolocationHandler(service), provider
}

func TestGeolocationHandler_ResolveLocation_Success(t *testing.T) {
	handler, provider := newGeolocationHandler()

	req := httptest.NewRequest("GET", "/api/geolocation?session_id=sess-1", nil)
	req.RemoteAddr = "203.0.113.9:4521"
	w := httptest.NewRecorder()

	handler.ResolveLocation(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "203.0.113.9", provider.lastIP)

	var resolved providers.ResolvedLocation
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resolved))
	assert.Equal(t, providers.GeoSourceIP, resolved.Source)
	assert.Equal(t, "Austin", resolved.City)
}

func TestGeolocationHandler_ResolveLocation_ForwardedForWins(t *testing.T) {
	handler, provider := newGeolocationHandler()

	req := httptest.NewRequest("GET", "/api/geolocation?session_id=sess-1", nil)
	req.RemoteAddr = "10.0.0.1:4521"
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
	w := httptest.NewRecorder()

	handler.ResolveLocation(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "198.51.100.7", provider.lastIP)
}

func TestGeolocationHandler_ResolveLocation_MissingSession(t *testing.T) {
	handler, _ := newGeolocationHandler()

	req := httptest.NewRequest("GET", "/api/geolocation", nil)
	w := httptest.NewRecorder()

	handler.ResolveLocation(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGeolocationHandler_PinLocation_Success(t *testing.T) {
	handler, _ := newGeolocationHandler()

	body := `{"session_id":"sess-1","lat":47.6062,"lng":-122.3321}`
	req := httptest.NewRequest("POST", "/api/geolocation", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.PinLocation(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resolved providers.ResolvedLocation
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resolved))
	assert.Equal(t, providers.GeoSourceGPS, resolved.Source)
	assert.Equal(t, 47.6062, resolved.Latitude)
}

func TestGeolocationHandler_PinLocation_CoordinatesOutOfRange(t *testing.T) {
	handler, _ := newGeolocationHandler()

	body := `{"session_id":"sess-1","lat":123.0,"lng":-122.3321}`
	req := httptest.NewRequest("POST", "/api/geolocation", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.PinLocation(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
