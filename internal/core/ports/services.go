package ports

import (
	"context"

	"github.com/JVdev14/ache-pre-os/internal/core/domain"
)

// PostalLookup resolves a Brazilian CEP to an address record.
type PostalLookup interface {
	Lookup(ctx context.Context, cep string) (*domain.Address, error)
}

// Geocoder resolves free-text or structured addresses to coordinates.
type Geocoder interface {
	GeocodeAddress(ctx context.Context, addr *domain.Address) (*domain.Coordinates, error)
	GeocodeCity(ctx context.Context, city, state string) (*domain.Coordinates, error)
}

// PlaceSource finds establishments around a point. Implementations must
// return places with category already normalized; distance and ordering
// are owned by the search pipeline.
type PlaceSource interface {
	// Name identifies the source in results and metrics.
	Name() string
	FindNearby(ctx context.Context, center domain.Coordinates, radiusMeters float64) ([]domain.Place, error)
}

// PriceSource fetches real product prices for a place.
// Implementations return a nil slice without error when they are not
// configured (e.g. missing API key).
type PriceSource interface {
	FetchPrices(ctx context.Context, place domain.Place, city string) ([]domain.Product, error)
}

// ImageGenerator produces an illustrative image URL for a category.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, category domain.Category) (string, error)
}

// CityDirectory lists the municipalities of a state.
type CityDirectory interface {
	ListByState(ctx context.Context, uf string) ([]string, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishSearchEvent(ctx context.Context, event *domain.SearchEvent) error
	PublishPriceBroadcast(ctx context.Context, data []byte) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
