package geolocation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/snapmap/storefinder/backend/internal/domain/providers"
)

const defaultHTTPTimeout = 5 * time.Second

// IPAPIProvider resolves IP addresses through an ip-api style JSON endpoint
type IPAPIProvider struct {
	endpoint   string
	httpClient *http.Client
}

// NewIPAPIProvider creates a new IP geolocation provider
func NewIPAPIProvider(endpoint string, httpClient *http.Client) providers.GeolocationProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &IPAPIProvider{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		httpClient: httpClient,
	}
}

// ResolveIP converts an IP address to an approximate location
func (p *IPAPIProvider) ResolveIP(ctx context.Context, ip string) (*providers.ResolvedLocation, error) {
	if strings.TrimSpace(ip) == "" {
		return nil, fmt.Errorf("ip is required")
	}

	reqURL := fmt.Sprintf("%s/%s", p.endpoint, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geolocation request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geolocation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("geolocation request returned status %d", resp.StatusCode)
	}

	var payload ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode geolocation response: %w", err)
	}
	if payload.Status != "success" {
		return nil, fmt.Errorf("geolocation lookup failed: %s", payload.Message)
	}

	return &providers.ResolvedLocation{
		Latitude:  payload.Lat,
		Longitude: payload.Lon,
		City:      payload.City,
		State:     payload.Region,
		Source:    providers.GeoSourceIP,
	}, nil
}

type ipAPIResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city"`
	Region  string  `json:"region"`
}
