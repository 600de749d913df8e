package domain

// Category is the closed set of establishment types used to unify the
// tag vocabularies of the different place sources.
type Category string

const (
	CategoryMercado     Category = "Mercado"
	CategoryFarmacia    Category = "Farmácia"
	CategoryLanchonete  Category = "Lanchonete"
	CategoryCafeteria   Category = "Cafeteria"
	CategoryPadaria     Category = "Padaria"
	CategoryRestaurante Category = "Restaurante"
	CategoryLoja        Category = "Loja"
	CategoryOutros      Category = "Outros"
)

// Categories lists every valid category, in presentation order.
// The first entry doubles as the quiz's default recommendation.
var Categories = []Category{
	CategoryMercado,
	CategoryFarmacia,
	CategoryLanchonete,
	CategoryCafeteria,
	CategoryPadaria,
	CategoryRestaurante,
	CategoryLoja,
	CategoryOutros,
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// Place represents a commercial establishment returned by a geographic search.
// Identity is the source API's ID; there is no cross-source reconciliation.
type Place struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Category Category    `json:"category"`
	Address  string      `json:"address,omitempty"`
	Location Coordinates `json:"location"`
	// DistanceKm is computed from the query point, rounded to one decimal.
	DistanceKm float64 `json:"distance_km"`
	// Enriched fields, present only on the commercial places path.
	Rating   float64 `json:"rating,omitempty"`
	OpenNow  *bool   `json:"open_now,omitempty"`
	PhotoRef string  `json:"photo_ref,omitempty"`
	Products []Product `json:"products,omitempty"`
}
