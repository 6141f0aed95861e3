package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"github.com/snapmap/storefinder/backend/internal/domain/providers"
)

const (
	googleTextSearchURL   = "https://maps.googleapis.com/maps/api/place/textsearch/json"
	googlePlaceDetailsURL = "https://maps.googleapis.com/maps/api/place/details/json"
	defaultHTTPTimeout    = 8 * time.Second
)

// GooglePlacesProvider implements the PlacesProvider using the Google Places
// APIs. Calls run through a circuit breaker so a misbehaving upstream trips
// fast instead of burning budget on timeouts.
type GooglePlacesProvider struct {
	apiKey        string
	httpClient    *http.Client
	textSearchURL string
	detailsURL    string
	breaker       *gobreaker.CircuitBreaker
}

// NewGooglePlacesProvider creates a new Google places provider
func NewGooglePlacesProvider(apiKey string) providers.PlacesProvider {
	return NewGooglePlacesProviderWithOptions(apiKey, "", nil)
}

// NewGooglePlacesProviderWithOptions allows overriding the base URL and HTTP
// client (used for tests). baseURL, when set, replaces the host+path prefix
// of both endpoints.
func NewGooglePlacesProviderWithOptions(apiKey, baseURL string, httpClient *http.Client) providers.PlacesProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	textSearchURL := googleTextSearchURL
	detailsURL := googlePlaceDetailsURL
	if strings.TrimSpace(baseURL) != "" {
		baseURL = strings.TrimSuffix(baseURL, "/")
		textSearchURL = baseURL + "/textsearch/json"
		detailsURL = baseURL + "/details/json"
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "places-api",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &GooglePlacesProvider{
		apiKey:        apiKey,
		httpClient:    httpClient,
		textSearchURL: textSearchURL,
		detailsURL:    detailsURL,
		breaker:       breaker,
	}
}

// TextSearch finds place candidates for a free-text query
func (g *GooglePlacesProvider) TextSearch(ctx context.Context, query, region string) (json.RawMessage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is required")
	}

	params := url.Values{}
	params.Set("query", query)
	if region != "" {
		params.Set("region", region)
	}

	return g.doRequest(ctx, g.textSearchURL, params)
}

// PlaceDetails fetches the requested fields for a single place
func (g *GooglePlacesProvider) PlaceDetails(ctx context.Context, placeID string, fields []string) (json.RawMessage, error) {
	if strings.TrimSpace(placeID) == "" {
		return nil, fmt.Errorf("place id is required")
	}

	params := url.Values{}
	params.Set("place_id", placeID)
	if len(fields) > 0 {
		params.Set("fields", strings.Join(fields, ","))
	}

	return g.doRequest(ctx, g.detailsURL, params)
}

func (g *GooglePlacesProvider) doRequest(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("places api key is required")
	}
	params.Set("key", g.apiKey)

	payload, err := g.breaker.Execute(func() (interface{}, error) {
		reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build places request: %w", err)
		}

		resp, err := g.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("places request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("places request returned status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read places response: %w", err)
		}

		var status googleStatusEnvelope
		if err := json.Unmarshal(body, &status); err != nil {
			return nil, fmt.Errorf("failed to decode places response: %w", err)
		}
		if status.Status != "OK" && status.Status != "ZERO_RESULTS" {
			if status.ErrorMessage != "" {
				return nil, fmt.Errorf("places request failed: %s - %s", status.Status, status.ErrorMessage)
			}
			return nil, fmt.Errorf("places request failed: %s", status.Status)
		}

		return json.RawMessage(body), nil
	})
	if err != nil {
		return nil, err
	}

	return payload.(json.RawMessage), nil
}

type googleStatusEnvelope struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}
