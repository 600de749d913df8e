package usecases

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/JVdev14/ache-pre-os/internal/core/domain"
	"github.com/JVdev14/ache-pre-os/internal/core/ports"
	"github.com/JVdev14/ache-pre-os/internal/pkg/metrics"
)

type mockPlaceSource struct {
	name   string
	findFn func(ctx context.Context, center domain.Coordinates, radiusMeters float64) ([]domain.Place, error)
	calls  int
}

func (m *mockPlaceSource) Name() string { return m.name }
func (m *mockPlaceSource) FindNearby(ctx context.Context, center domain.Coordinates, radiusMeters float64) ([]domain.Place, error) {
	m.calls++
	if m.findFn != nil {
		return m.findFn(ctx, center, radiusMeters)
	}
	return nil, nil
}

func newTestSearchService(primary, premium *mockPlaceSource) *SearchService {
	geocode := NewGeocodeService(&mockPostal{}, &mockGeocoder{})
	pricing := NewPricingService(nil, 5, rand.New(rand.NewSource(1)))
	fallback := domain.Coordinates{Lat: -23.5505, Lon: -46.6333}

	// A nil *mockPlaceSource must stay a nil interface.
	var prem ports.PlaceSource
	if premium != nil {
		prem = premium
	}
	return NewSearchService(geocode, primary, prem, pricing, nil, nil, nil, fallback, 20, rand.New(rand.NewSource(2)))
}

func TestSearchByCEP_CountsSearchesBySource(t *testing.T) {
	primary := &mockPlaceSource{name: "overpass"}
	svc := newTestSearchService(primary, nil)

	before := testutil.ToFloat64(metrics.SearchesTotal.WithLabelValues("overpass"))
	if _, err := svc.SearchByCEP(context.Background(), "01310100", 2000, ""); err != nil {
		t.Fatal(err)
	}
	after := testutil.ToFloat64(metrics.SearchesTotal.WithLabelValues("overpass"))

	if after-before != 1 {
		t.Errorf("expected 1 overpass search counted, got %.0f", after-before)
	}
}

func TestFindNearby_SortedAscendingAndCapped(t *testing.T) {
	center := domain.Coordinates{Lat: -23.55, Lon: -46.63}
	primary := &mockPlaceSource{
		name: "overpass",
		findFn: func(ctx context.Context, c domain.Coordinates, r float64) ([]domain.Place, error) {
			// 25 places, farthest first.
			var places []domain.Place
			for i := 25; i >= 1; i-- {
				places = append(places, domain.Place{
					ID:       fmt.Sprintf("osm-%d", i),
					Name:     fmt.Sprintf("Loja %d", i),
					Category: domain.CategoryLoja,
					Location: domain.Coordinates{Lat: c.Lat + float64(i)*0.01, Lon: c.Lon},
				})
			}
			return places, nil
		},
	}
	svc := newTestSearchService(primary, nil)

	places, source := svc.FindNearby(context.Background(), center, 2000)
	if source != "overpass" {
		t.Errorf("expected source overpass, got %q", source)
	}
	if len(places) != 20 {
		t.Fatalf("expected list capped at 20, got %d", len(places))
	}
	for i := 1; i < len(places); i++ {
		if places[i].DistanceKm < places[i-1].DistanceKm {
			t.Fatalf("places not sorted ascending at index %d: %.1f < %.1f",
				i, places[i].DistanceKm, places[i-1].DistanceKm)
		}
	}
}

func TestFindNearby_PrimaryFailureFallsBackToMock(t *testing.T) {
	primary := &mockPlaceSource{
		name: "overpass",
		findFn: func(ctx context.Context, c domain.Coordinates, r float64) ([]domain.Place, error) {
			return nil, errors.New("overpass 504")
		},
	}
	svc := newTestSearchService(primary, nil)

	places, source := svc.FindNearby(context.Background(), domain.Coordinates{Lat: -23.55, Lon: -46.63}, 2000)
	if source != "mock" {
		t.Fatalf("expected mock source, got %q", source)
	}
	if len(places) != len(mockPlaces) {
		t.Fatalf("expected %d mock places, got %d", len(mockPlaces), len(places))
	}
	for i := 1; i < len(places); i++ {
		if places[i].DistanceKm < places[i-1].DistanceKm {
			t.Fatal("mock places not sorted ascending")
		}
	}
}

func TestFindNearby_PremiumPreferredWhenItYields(t *testing.T) {
	primary := &mockPlaceSource{name: "overpass"}
	premium := &mockPlaceSource{
		name: "google",
		findFn: func(ctx context.Context, c domain.Coordinates, r float64) ([]domain.Place, error) {
			return []domain.Place{{ID: "gp-1", Name: "Mercado Premium", Category: domain.CategoryMercado, Location: c}}, nil
		},
	}
	svc := newTestSearchService(primary, premium)

	_, source := svc.FindNearby(context.Background(), domain.Coordinates{Lat: -23.55, Lon: -46.63}, 2000)
	if source != "google" {
		t.Errorf("expected google source, got %q", source)
	}
	if primary.calls != 0 {
		t.Errorf("primary source must not be queried when premium yields, got %d calls", primary.calls)
	}
}

func TestFindNearby_EmptyPremiumFallsThroughToPrimary(t *testing.T) {
	primary := &mockPlaceSource{
		name: "overpass",
		findFn: func(ctx context.Context, c domain.Coordinates, r float64) ([]domain.Place, error) {
			return []domain.Place{{ID: "osm-1", Name: "Padaria", Category: domain.CategoryPadaria, Location: c}}, nil
		},
	}
	premium := &mockPlaceSource{name: "google"}
	svc := newTestSearchService(primary, premium)

	places, source := svc.FindNearby(context.Background(), domain.Coordinates{Lat: -23.55, Lon: -46.63}, 2000)
	if source != "overpass" {
		t.Errorf("expected overpass source, got %q", source)
	}
	if len(places) != 1 {
		t.Errorf("expected 1 place, got %d", len(places))
	}
}

func TestFindNearby_InvalidCategoryNormalizedToOutros(t *testing.T) {
	primary := &mockPlaceSource{
		name: "overpass",
		findFn: func(ctx context.Context, c domain.Coordinates, r float64) ([]domain.Place, error) {
			return []domain.Place{{ID: "x", Name: "X", Category: domain.Category("weird"), Location: c}}, nil
		},
	}
	svc := newTestSearchService(primary, nil)

	places, _ := svc.FindNearby(context.Background(), domain.Coordinates{Lat: -23.55, Lon: -46.63}, 2000)
	if places[0].Category != domain.CategoryOutros {
		t.Errorf("expected Outros, got %q", places[0].Category)
	}
}

func TestSearchByCEP_RejectsMalformed(t *testing.T) {
	svc := newTestSearchService(&mockPlaceSource{name: "overpass"}, nil)

	_, err := svc.SearchByCEP(context.Background(), "12ab", 2000, "")
	if !errors.Is(err, ErrInvalidCEP) {
		t.Fatalf("expected ErrInvalidCEP, got %v", err)
	}
}

func TestSearchByCEP_GeocodeFailureUsesFallbackCoordinate(t *testing.T) {
	geocode := NewGeocodeService(&mockPostal{
		lookupFn: func(ctx context.Context, cep string) (*domain.Address, error) {
			return nil, errors.New("viacep down")
		},
	}, &mockGeocoder{})
	pricing := NewPricingService(nil, 5, rand.New(rand.NewSource(1)))

	fallback := domain.Coordinates{Lat: -23.5505, Lon: -46.6333}
	var gotCenter domain.Coordinates
	primary := &mockPlaceSource{
		name: "overpass",
		findFn: func(ctx context.Context, c domain.Coordinates, r float64) ([]domain.Place, error) {
			gotCenter = c
			return []domain.Place{{ID: "osm-1", Name: "Café", Category: domain.CategoryCafeteria, Location: c}}, nil
		},
	}
	svc := NewSearchService(geocode, primary, nil, pricing, nil, nil, nil, fallback, 20, rand.New(rand.NewSource(2)))

	result, err := svc.SearchByCEP(context.Background(), "01310100", 2000, "")
	if err != nil {
		t.Fatal(err)
	}
	if !result.Origin.Fallback {
		t.Error("origin must be marked fallback")
	}
	if gotCenter != fallback {
		t.Errorf("expected search centered on fallback %v, got %v", fallback, gotCenter)
	}
}

func TestSearchByCity_EmptyQueryRejected(t *testing.T) {
	svc := newTestSearchService(&mockPlaceSource{name: "overpass"}, nil)

	_, err := svc.SearchByCity(context.Background(), "", "SP", 2000, "")
	if !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestSearchByCoords_AttachesPrices(t *testing.T) {
	primary := &mockPlaceSource{
		name: "overpass",
		findFn: func(ctx context.Context, c domain.Coordinates, r float64) ([]domain.Place, error) {
			return []domain.Place{{ID: "osm-1", Name: "Mercado", Category: domain.CategoryMercado, Location: c}}, nil
		},
	}
	svc := newTestSearchService(primary, nil)

	result, err := svc.SearchByCoords(context.Background(), domain.Coordinates{Lat: -23.55, Lon: -46.63}, 2000, "")
	if err != nil {
		t.Fatal(err)
	}
	if result.Kind != "coords" {
		t.Errorf("expected kind coords, got %q", result.Kind)
	}
	if len(result.Places) != 1 {
		t.Fatalf("expected 1 place, got %d", len(result.Places))
	}
	if len(result.Places[0].Products) == 0 {
		t.Error("expected products attached to every place")
	}
}
