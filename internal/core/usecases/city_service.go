package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/JVdev14/ache-pre-os/internal/core/ports"
	"github.com/JVdev14/ache-pre-os/internal/pkg/metrics"
)

// ErrInvalidUF is returned for state codes that are not two letters.
var ErrInvalidUF = errors.New("uf must be a two-letter state code")

// cityCacheTTL bounds municipality-list staleness to one day.
const cityCacheTTL = 86400

// CityService lists the municipalities of a state, cached with an explicit TTL.
type CityService struct {
	dir   ports.CityDirectory
	cache ports.CacheService
}

// NewCityService creates a new CityService.
func NewCityService(dir ports.CityDirectory, cache ports.CacheService) *CityService {
	return &CityService{dir: dir, cache: cache}
}

// ListByState returns the municipality names of a UF, sorted as the source
// delivers them.
func (s *CityService) ListByState(ctx context.Context, uf string) ([]string, error) {
	uf = strings.ToUpper(strings.TrimSpace(uf))
	if len(uf) != 2 || !isAlpha(uf) {
		return nil, ErrInvalidUF
	}

	cacheKey := "cities:uf:" + uf
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cities []string
			if err := json.Unmarshal(data, &cities); err == nil {
				metrics.CacheHits.WithLabelValues("cities").Inc()
				return cities, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("cities").Inc()
	}

	cities, err := s.dir.ListByState(ctx, uf)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(cities); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, cityCacheTTL)
		}
	}

	return cities, nil
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
