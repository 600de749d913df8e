package domain

// Coordinates represents a geographic coordinate (WGS 84).
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Address is a resolved postal-code record.
type Address struct {
	CEP          string `json:"cep"`
	Street       string `json:"street,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// GeocodeResult pairs a resolved address with its coordinates.
type GeocodeResult struct {
	Address  *Address    `json:"address,omitempty"`
	Location Coordinates `json:"location"`
	// Fallback is true when resolution failed and a fixed default
	// coordinate was substituted.
	Fallback bool `json:"fallback,omitempty"`
}
