package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var zipPattern = regexp.MustCompile(`^\d{5}$`)

// SearchRequest is the value object describing one store search. At most one
// location resolution mode is authoritative at a time: explicit coordinates
// beat city/state, which beat zip, which beat a city token embedded in the
// free-text query.
type SearchRequest struct {
	Query       string    `json:"query"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	Zip         string    `json:"zip"`
	Origin      *Location `json:"origin,omitempty"`
	RadiusMiles float64   `json:"radius_miles"`
	Category    string    `json:"category"`
	StoreTypes  []string  `json:"store_types"`
}

// HasOrigin reports whether explicit coordinates were supplied
func (r *SearchRequest) HasOrigin() bool {
	return r.Origin != nil
}

// HasCityState reports whether an explicit city and state were supplied
func (r *SearchRequest) HasCityState() bool {
	return strings.TrimSpace(r.City) != "" && strings.TrimSpace(r.State) != ""
}

// HasZip reports whether a 5-digit zip code was supplied
func (r *SearchRequest) HasZip() bool {
	return zipPattern.MatchString(strings.TrimSpace(r.Zip))
}

// HasQuery reports whether a non-empty free-text query was supplied
func (r *SearchRequest) HasQuery() bool {
	return strings.TrimSpace(r.Query) != ""
}

// Normalized returns a copy with trimmed, lowercased text fields and sorted
// store types, suitable for cache keying
func (r *SearchRequest) Normalized() SearchRequest {
	out := *r
	out.Query = strings.ToLower(strings.TrimSpace(r.Query))
	out.City = strings.ToLower(strings.TrimSpace(r.City))
	out.State = strings.ToUpper(strings.TrimSpace(r.State))
	out.Zip = strings.TrimSpace(r.Zip)
	out.Category = strings.ToLower(strings.TrimSpace(r.Category))
	out.StoreTypes = append([]string(nil), r.StoreTypes...)
	sort.Strings(out.StoreTypes)
	return out
}

// CacheKey returns a stable key for the full normalized request
func (r *SearchRequest) CacheKey() string {
	n := r.Normalized()
	origin := ""
	if n.Origin != nil {
		origin = fmt.Sprintf("%.5f,%.5f", n.Origin.Latitude, n.Origin.Longitude)
	}
	raw := strings.Join([]string{
		n.Query, n.City, n.State, n.Zip, origin,
		fmt.Sprintf("%.1f", n.RadiusMiles),
		n.Category,
		strings.Join(n.StoreTypes, ","),
	}, "|")
	sum := sha256.Sum256([]byte(raw))
	return "search:v1:" + hex.EncodeToString(sum[:])
}
