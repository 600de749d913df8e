package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JVdev14/ache-pre-os/internal/core/domain"
	"github.com/JVdev14/ache-pre-os/internal/core/ports"
)

// ErrInvalidCEP is returned for postal codes that are not exactly 8 digits.
// Malformed codes are rejected before any network call is made.
var ErrInvalidCEP = errors.New("cep must contain exactly 8 digits")

// ErrEmptyQuery is returned when neither a CEP nor a city was provided.
var ErrEmptyQuery = errors.New("search query must not be empty")

// GeocodeService resolves postal codes and city names to coordinates.
// Each resolution is a single attempt; there are no retries.
type GeocodeService struct {
	postal ports.PostalLookup
	geo    ports.Geocoder
}

// NewGeocodeService creates a new GeocodeService.
func NewGeocodeService(postal ports.PostalLookup, geo ports.Geocoder) *GeocodeService {
	return &GeocodeService{postal: postal, geo: geo}
}

// NormalizeCEP strips the usual separators and validates the digit format.
func NormalizeCEP(cep string) (string, error) {
	cep = strings.ReplaceAll(strings.TrimSpace(cep), "-", "")
	cep = strings.ReplaceAll(cep, ".", "")
	if len(cep) != 8 {
		return "", ErrInvalidCEP
	}
	for _, r := range cep {
		if r < '0' || r > '9' {
			return "", ErrInvalidCEP
		}
	}
	return cep, nil
}

// ResolveCEP resolves a postal code to an address and coordinates:
// CEP -> address record -> coordinates, two external lookups in sequence.
func (s *GeocodeService) ResolveCEP(ctx context.Context, cep string) (*domain.GeocodeResult, error) {
	normalized, err := NormalizeCEP(cep)
	if err != nil {
		return nil, err
	}

	addr, err := s.postal.Lookup(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("postal lookup %s: %w", normalized, err)
	}

	loc, err := s.geo.GeocodeAddress(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("geocode address %s: %w", normalized, err)
	}

	return &domain.GeocodeResult{Address: addr, Location: *loc}, nil
}

// ResolveCity resolves a city name (optionally qualified with a state code)
// directly to coordinates.
func (s *GeocodeService) ResolveCity(ctx context.Context, city, state string) (*domain.GeocodeResult, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, ErrEmptyQuery
	}

	loc, err := s.geo.GeocodeCity(ctx, city, strings.TrimSpace(state))
	if err != nil {
		return nil, fmt.Errorf("geocode city %q: %w", city, err)
	}

	return &domain.GeocodeResult{
		Address:  &domain.Address{City: city, State: strings.ToUpper(strings.TrimSpace(state))},
		Location: *loc,
	}, nil
}
