package googleplaces

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/JVdev14/ache-pre-os/internal/core/domain"
)

// categoryTypes maps each queried Google place type to a category.
// Order matters only for the request sequence, not for mapping.
var categoryTypes = []struct {
	placeType string
	category  domain.Category
}{
	{"supermarket", domain.CategoryMercado},
	{"pharmacy", domain.CategoryFarmacia},
	{"meal_takeaway", domain.CategoryLanchonete},
	{"cafe", domain.CategoryCafeteria},
	{"bakery", domain.CategoryPadaria},
	{"restaurant", domain.CategoryRestaurante},
}

// Client implements ports.PlaceSource against the Google Places Nearby
// Search API. Without an API key every lookup returns an empty set
// immediately, with no error.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// New creates a Google Places client.
func New(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://maps.googleapis.com"
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Name identifies the source.
func (c *Client) Name() string { return "google" }

// Configured reports whether an API key is present.
func (c *Client) Configured() bool { return c.apiKey != "" }

type nearbyResponse struct {
	Status  string `json:"status"`
	Results []struct {
		PlaceID  string `json:"place_id"`
		Name     string `json:"name"`
		Vicinity string `json:"vicinity"`
		Rating   float64 `json:"rating"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		OpeningHours *struct {
			OpenNow bool `json:"open_now"`
		} `json:"opening_hours,omitempty"`
		Photos []struct {
			PhotoReference string `json:"photo_reference"`
		} `json:"photos,omitempty"`
	} `json:"results"`
}

// FindNearby runs one nearby search per mapped type and merges the results,
// deduplicating by place ID.
func (c *Client) FindNearby(ctx context.Context, center domain.Coordinates, radiusMeters float64) ([]domain.Place, error) {
	if c.apiKey == "" {
		return nil, nil
	}

	seen := make(map[string]bool)
	var places []domain.Place

	for _, ct := range categoryTypes {
		results, err := c.nearby(ctx, center, radiusMeters, ct.placeType)
		if err != nil {
			return nil, err
		}
		for _, r := range results.Results {
			if seen[r.PlaceID] {
				continue
			}
			seen[r.PlaceID] = true

			p := domain.Place{
				ID:       "gp-" + r.PlaceID,
				Name:     r.Name,
				Category: ct.category,
				Address:  r.Vicinity,
				Location: domain.Coordinates{Lat: r.Geometry.Location.Lat, Lon: r.Geometry.Location.Lng},
				Rating:   r.Rating,
			}
			if r.OpeningHours != nil {
				open := r.OpeningHours.OpenNow
				p.OpenNow = &open
			}
			if len(r.Photos) > 0 {
				p.PhotoRef = r.Photos[0].PhotoReference
			}
			places = append(places, p)
		}
	}
	return places, nil
}

func (c *Client) nearby(ctx context.Context, center domain.Coordinates, radiusMeters float64, placeType string) (*nearbyResponse, error) {
	q := url.Values{}
	q.Set("location", fmt.Sprintf("%f,%f", center.Lat, center.Lon))
	q.Set("radius", fmt.Sprintf("%.0f", radiusMeters))
	q.Set("type", placeType)
	q.Set("key", c.apiKey)

	endpoint := c.baseURL + "/maps/api/place/nearbysearch/json?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google places request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google places status %d", resp.StatusCode)
	}

	var body nearbyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("google places decode: %w", err)
	}
	if body.Status != "OK" && body.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("google places status %s", body.Status)
	}
	return &body, nil
}
