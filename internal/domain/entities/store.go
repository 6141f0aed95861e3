package entities

// Store represents an EBT/SNAP authorized retailer in the system
type Store struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Address          Address   `json:"address"`
	StoreType        string    `json:"store_type"`
	Location         *Location `json:"location,omitempty"`
	IncentiveProgram string    `json:"incentive_program,omitempty"`

	// DistanceMiles is populated only when a search origin was supplied or
	// the fetching RPC computed it. Nil means no origin was known.
	DistanceMiles *float64 `json:"distance_miles,omitempty"`

	// Similarity is the text-match score from the fuzzy search RPC, zero
	// for rows fetched by proximity.
	Similarity float64 `json:"similarity,omitempty"`
}

// Address represents a physical address
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
}

// Location represents geographical coordinates
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// HasIncentive reports whether the store participates in an incentive
// program such as Double Up Food Bucks
func (s *Store) HasIncentive() bool {
	return s.IncentiveProgram != ""
}
