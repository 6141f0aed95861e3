package entities

import (
	"encoding/json"
	"time"
)

// CacheEntry is a persisted enrichment response. An entry past FreshUntil is
// stale but still servable as a degraded-mode fallback; it is only ever
// superseded by a fresh write, never deleted on staleness alone.
type CacheEntry struct {
	Key        string          `json:"key"`
	Payload    json.RawMessage `json:"payload"`
	FreshUntil time.Time       `json:"fresh_until"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// IsFresh reports whether the entry is still within its freshness window
func (e *CacheEntry) IsFresh(now time.Time) bool {
	return now.Before(e.FreshUntil)
}
