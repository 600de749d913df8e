package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/JVdev14/ache-pre-os/internal/core/domain"
)

// Client implements ports.Geocoder against the Nominatim search API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Nominatim client.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// GeocodeAddress resolves a structured address record to coordinates.
func (c *Client) GeocodeAddress(ctx context.Context, addr *domain.Address) (*domain.Coordinates, error) {
	q := url.Values{}
	if addr.Street != "" {
		q.Set("street", addr.Street)
	}
	q.Set("city", addr.City)
	q.Set("state", addr.State)
	q.Set("country", "Brazil")
	return c.search(ctx, q)
}

// GeocodeCity resolves a free-text city (optionally with a state code).
func (c *Client) GeocodeCity(ctx context.Context, city, state string) (*domain.Coordinates, error) {
	query := city
	if state != "" {
		query += ", " + state
	}
	query += ", Brazil"

	q := url.Values{}
	q.Set("q", query)
	return c.search(ctx, q)
}

func (c *Client) search(ctx context.Context, q url.Values) (*domain.Coordinates, error) {
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	// Nominatim usage policy requires an identifying User-Agent.
	req.Header.Set("User-Agent", "precofacil/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim status %d", resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("nominatim decode: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("nominatim: no results")
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("nominatim lat: %w", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("nominatim lon: %w", err)
	}

	return &domain.Coordinates{Lat: lat, Lon: lon}, nil
}
