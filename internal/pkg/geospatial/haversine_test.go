package geospatial

import (
	"math"
	"testing"
)

func TestHaversine_SamePointIsZero(t *testing.T) {
	d := DistanceKm(-23.5505, -46.6333, -23.5505, -46.6333)
	if d != 0 {
		t.Errorf("expected 0, got %f", d)
	}
}

func TestHaversine_Symmetric(t *testing.T) {
	// São Paulo <-> Rio de Janeiro
	ab := DistanceKm(-23.5505, -46.6333, -22.9068, -43.1729)
	ba := DistanceKm(-22.9068, -43.1729, -23.5505, -46.6333)
	if ab != ba {
		t.Errorf("expected symmetric distance, got %f and %f", ab, ba)
	}
}

func TestHaversine_KnownDistance(t *testing.T) {
	// São Paulo to Rio de Janeiro is roughly 360 km great-circle.
	d := Haversine(-23.5505, -46.6333, -22.9068, -43.1729)
	if d < 350 || d > 370 {
		t.Errorf("expected ~360 km, got %f", d)
	}
}

func TestDistanceKm_OneDecimal(t *testing.T) {
	d := DistanceKm(-23.5505, -46.6333, -23.5605, -46.6433)
	if math.Round(d*10) != d*10 {
		t.Errorf("expected one-decimal rounding, got %f", d)
	}
	if d < 0 {
		t.Errorf("distance must be non-negative, got %f", d)
	}
}

func TestBoundingBox_ContainsCenter(t *testing.T) {
	minLat, minLon, maxLat, maxLon := BoundingBox(-23.55, -46.63, 2000)
	if minLat >= -23.55 || maxLat <= -23.55 {
		t.Errorf("latitude bounds do not contain center: %f..%f", minLat, maxLat)
	}
	if minLon >= -46.63 || maxLon <= -46.63 {
		t.Errorf("longitude bounds do not contain center: %f..%f", minLon, maxLon)
	}
}
