package providers

import "context"

// Geolocation source labels. A GPS-sourced location always outranks an
// IP-sourced one for the same session.
const (
	GeoSourceIP  = "ip"
	GeoSourceGPS = "gps"
)

// ResolvedLocation is the outcome of a geolocation lookup
type ResolvedLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Source    string  `json:"source"`
}

// GeolocationProvider resolves an IP address to an approximate location
type GeolocationProvider interface {
	ResolveIP(ctx context.Context, ip string) (*ResolvedLocation, error)
}
