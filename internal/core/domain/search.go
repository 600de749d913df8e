package domain

import "time"

// SearchResult is the full payload of one establishment search.
type SearchResult struct {
	Query     string        `json:"query"`
	Kind      string        `json:"kind"` // "cep" | "city" | "coords"
	Origin    GeocodeResult `json:"origin"`
	Places    []Place       `json:"places"`
	Source    string        `json:"source"` // "google" | "overpass" | "mock"
	LatencyMs int           `json:"latency_ms"`
}

// SearchEvent records a single search interaction for analytics.
type SearchEvent struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id,omitempty"`
	Query       string    `json:"query"`
	Kind        string    `json:"kind"`
	Source      string    `json:"source"`
	ResultCount int       `json:"result_count"`
	LatencyMs   int       `json:"latency_ms"`
	Location    Coordinates `json:"location"`
	CreatedAt   time.Time `json:"created_at"`
}
