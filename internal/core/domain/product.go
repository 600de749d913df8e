package domain

import "time"

// Confidence is the trust tier attached to an LLM-extracted price.
type Confidence string

const (
	ConfidenceAlta  Confidence = "alta"
	ConfidenceMedia Confidence = "media"
	ConfidenceBaixa Confidence = "baixa"
)

// Product is a priced item attached to a place. Products are ephemeral:
// regenerated on every search, never persisted.
type Product struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Price     float64  `json:"price"`
	StoreName string   `json:"store_name"`
	Category  Category `json:"category"`
	// Provenance: set on the real-price path only.
	Source      string     `json:"source,omitempty"`
	Confidence  Confidence `json:"confidence,omitempty"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
	IsReal      bool       `json:"is_real"`
}
