package entities

import "time"

// ClickEvent records a user selecting a store from search results. Recent
// clicks feed the trending ordering.
type ClickEvent struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"store_id"`
	ClickedAt time.Time `json:"clicked_at"`
	UserLat   float64   `json:"user_lat"`
	UserLng   float64   `json:"user_lng"`
}
