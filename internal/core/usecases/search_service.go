package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JVdev14/ache-pre-os/internal/core/domain"
	"github.com/JVdev14/ache-pre-os/internal/core/ports"
	"github.com/JVdev14/ache-pre-os/internal/pkg/geospatial"
	"github.com/JVdev14/ache-pre-os/internal/pkg/metrics"
)

// mockPlace is an entry of the fixed establishment set used when every
// place source fails.
type mockPlace struct {
	name     string
	category domain.Category
	dLat     float64
	dLon     float64
}

var mockPlaces = []mockPlace{
	{"Supermercado Boa Compra", domain.CategoryMercado, 0.004, -0.002},
	{"Farmácia Saúde Total", domain.CategoryFarmacia, -0.003, 0.005},
	{"Padaria Pão Dourado", domain.CategoryPadaria, 0.002, 0.003},
	{"Café Central", domain.CategoryCafeteria, -0.005, -0.004},
	{"Restaurante Sabor Caseiro", domain.CategoryRestaurante, 0.006, 0.001},
	{"Lanchonete do Zé", domain.CategoryLanchonete, -0.001, -0.006},
	{"Loja Tudo Aqui", domain.CategoryLoja, 0.007, 0.004},
}

// SearchService orchestrates the establishment-search pipeline:
// geocode -> find places -> rank by distance -> attach prices.
type SearchService struct {
	geocode  *GeocodeService
	primary  ports.PlaceSource // Overpass
	premium  ports.PlaceSource // Google Places, nil when not wired
	pricing  *PricingService
	events   ports.SearchEventRepository // optional
	pub      ports.EventPublisher        // optional
	cache    ports.CacheService          // optional
	fallback domain.Coordinates
	maxResults int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSearchService creates a SearchService. premium, events, pub, and cache
// may be nil; the pipeline degrades gracefully without them.
func NewSearchService(
	geocode *GeocodeService,
	primary ports.PlaceSource,
	premium ports.PlaceSource,
	pricing *PricingService,
	events ports.SearchEventRepository,
	pub ports.EventPublisher,
	cache ports.CacheService,
	fallback domain.Coordinates,
	maxResults int,
	rng *rand.Rand,
) *SearchService {
	if maxResults <= 0 || maxResults > 20 {
		maxResults = 20
	}
	return &SearchService{
		geocode:    geocode,
		primary:    primary,
		premium:    premium,
		pricing:    pricing,
		events:     events,
		pub:        pub,
		cache:      cache,
		fallback:   fallback,
		maxResults: maxResults,
		rng:        rng,
	}
}

// SearchByCEP runs the full pipeline from a postal code.
func (s *SearchService) SearchByCEP(ctx context.Context, cep string, radiusMeters float64, userID string) (*domain.SearchResult, error) {
	if _, err := NormalizeCEP(cep); err != nil {
		return nil, err
	}

	origin, err := s.geocode.ResolveCEP(ctx, cep)
	if err != nil {
		slog.Warn("cep geocoding failed, using fallback coordinate", "cep", cep, "error", err)
		metrics.GeocodeFailures.WithLabelValues("cep").Inc()
		origin = &domain.GeocodeResult{Location: s.fallback, Fallback: true}
	}

	return s.run(ctx, cep, "cep", *origin, radiusMeters, userID)
}

// SearchByCity runs the full pipeline from a city name.
func (s *SearchService) SearchByCity(ctx context.Context, city, state string, radiusMeters float64, userID string) (*domain.SearchResult, error) {
	origin, err := s.geocode.ResolveCity(ctx, city, state)
	if err == ErrEmptyQuery {
		return nil, err
	}
	if err != nil {
		slog.Warn("city geocoding failed, using fallback coordinate", "city", city, "error", err)
		metrics.GeocodeFailures.WithLabelValues("city").Inc()
		origin = &domain.GeocodeResult{Location: s.fallback, Fallback: true}
	}

	return s.run(ctx, city, "city", *origin, radiusMeters, userID)
}

// SearchByCoords runs the pipeline from an already-known point.
func (s *SearchService) SearchByCoords(ctx context.Context, center domain.Coordinates, radiusMeters float64, userID string) (*domain.SearchResult, error) {
	origin := domain.GeocodeResult{Location: center}
	query := fmt.Sprintf("%.4f,%.4f", center.Lat, center.Lon)
	return s.run(ctx, query, "coords", origin, radiusMeters, userID)
}

func (s *SearchService) run(ctx context.Context, query, kind string, origin domain.GeocodeResult, radiusMeters float64, userID string) (*domain.SearchResult, error) {
	started := time.Now()

	places, source := s.FindNearby(ctx, origin.Location, radiusMeters)
	metrics.SearchesTotal.WithLabelValues(source).Inc()

	city := ""
	if origin.Address != nil {
		city = origin.Address.City
	}
	places = s.pricing.AttachPrices(ctx, places, city)

	result := &domain.SearchResult{
		Query:     query,
		Kind:      kind,
		Origin:    origin,
		Places:    places,
		Source:    source,
		LatencyMs: int(time.Since(started).Milliseconds()),
	}

	s.record(ctx, result, userID)
	return result, nil
}

// FindNearby queries the place sources and normalizes the outcome: distance
// from the center (km, one decimal), ascending order, capped list. The
// premium source is preferred when it yields results; a failing primary
// source degrades to the fixed mock establishment set.
func (s *SearchService) FindNearby(ctx context.Context, center domain.Coordinates, radiusMeters float64) ([]domain.Place, string) {
	cacheKey := fmt.Sprintf("places:nearby:%.4f:%.4f:%.0f", center.Lat, center.Lon, radiusMeters)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cached struct {
				Places []domain.Place `json:"places"`
				Source string         `json:"source"`
			}
			if err := json.Unmarshal(data, &cached); err == nil {
				metrics.CacheHits.WithLabelValues("places_nearby").Inc()
				return cached.Places, cached.Source
			}
		}
		metrics.CacheMisses.WithLabelValues("places_nearby").Inc()
	}

	places, source := s.fetchPlaces(ctx, center, radiusMeters)
	places = s.rank(center, places)

	if s.cache != nil && source != "mock" {
		payload := struct {
			Places []domain.Place `json:"places"`
			Source string         `json:"source"`
		}{places, source}
		if data, err := json.Marshal(payload); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 300)
		}
	}

	return places, source
}

func (s *SearchService) fetchPlaces(ctx context.Context, center domain.Coordinates, radiusMeters float64) ([]domain.Place, string) {
	if s.premium != nil {
		places, err := s.premium.FindNearby(ctx, center, radiusMeters)
		if err != nil {
			slog.Warn("premium place source failed", "source", s.premium.Name(), "error", err)
		} else if len(places) > 0 {
			return places, s.premium.Name()
		}
	}

	places, err := s.primary.FindNearby(ctx, center, radiusMeters)
	if err != nil {
		slog.Warn("place source failed, returning mock establishments",
			"source", s.primary.Name(), "error", err)
		return s.mockEstablishments(center), "mock"
	}
	return places, s.primary.Name()
}

// rank computes distances, sorts ascending, and caps the list.
func (s *SearchService) rank(center domain.Coordinates, places []domain.Place) []domain.Place {
	for i := range places {
		places[i].DistanceKm = geospatial.DistanceKm(
			center.Lat, center.Lon,
			places[i].Location.Lat, places[i].Location.Lon,
		)
		if !places[i].Category.Valid() {
			places[i].Category = domain.CategoryOutros
		}
	}

	sort.SliceStable(places, func(i, j int) bool {
		return places[i].DistanceKm < places[j].DistanceKm
	})

	if len(places) > s.maxResults {
		places = places[:s.maxResults]
	}
	return places
}

// mockEstablishments returns the fixed fallback set around the query point
// with randomly jittered coordinates.
func (s *SearchService) mockEstablishments(center domain.Coordinates) []domain.Place {
	s.mu.Lock()
	defer s.mu.Unlock()

	places := make([]domain.Place, 0, len(mockPlaces))
	for i, m := range mockPlaces {
		jLat := (s.rng.Float64() - 0.5) * 0.004
		jLon := (s.rng.Float64() - 0.5) * 0.004
		loc := domain.Coordinates{
			Lat: center.Lat + m.dLat + jLat,
			Lon: center.Lon + m.dLon + jLon,
		}
		places = append(places, domain.Place{
			ID:         fmt.Sprintf("mock-%d", i+1),
			Name:       m.name,
			Category:   m.category,
			Location:   loc,
			DistanceKm: geospatial.DistanceKm(center.Lat, center.Lon, loc.Lat, loc.Lon),
		})
	}

	sort.SliceStable(places, func(i, j int) bool {
		return places[i].DistanceKm < places[j].DistanceKm
	})
	return places
}

// record persists and publishes the search event. Both are best effort.
func (s *SearchService) record(ctx context.Context, result *domain.SearchResult, userID string) {
	event := &domain.SearchEvent{
		ID:          uuid.NewString(),
		UserID:      userID,
		Query:       result.Query,
		Kind:        result.Kind,
		Source:      result.Source,
		ResultCount: len(result.Places),
		LatencyMs:   result.LatencyMs,
		Location:    result.Origin.Location,
		CreatedAt:   time.Now().UTC(),
	}

	if s.events != nil {
		if err := s.events.Insert(ctx, event); err != nil {
			slog.Warn("persist search event failed", "error", err)
		}
	}
	if s.pub != nil {
		if err := s.pub.PublishSearchEvent(ctx, event); err != nil {
			slog.Warn("publish search event failed", "error", err)
		}
		if data, err := json.Marshal(result.Places); err == nil {
			_ = s.pub.PublishPriceBroadcast(ctx, data)
		}
	}
}

// RecentSearches returns the latest recorded searches of a user.
func (s *SearchService) RecentSearches(ctx context.Context, userID string, limit int) ([]domain.SearchEvent, error) {
	if s.events == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.events.RecentByUser(ctx, userID, limit)
}
