package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JVdev14/ache-pre-os/internal/core/domain"
	"github.com/JVdev14/ache-pre-os/internal/pkg/geospatial"
)

// tagRule maps one OSM tag to a category. The list is ordered: the first
// matching rule wins, so more specific tags must come before generic ones.
type tagRule struct {
	key      string
	value    string
	category domain.Category
}

var tagRules = []tagRule{
	{"amenity", "pharmacy", domain.CategoryFarmacia},
	{"shop", "chemist", domain.CategoryFarmacia},
	{"shop", "supermarket", domain.CategoryMercado},
	{"shop", "convenience", domain.CategoryMercado},
	{"shop", "greengrocer", domain.CategoryMercado},
	{"amenity", "fast_food", domain.CategoryLanchonete},
	{"amenity", "cafe", domain.CategoryCafeteria},
	{"shop", "bakery", domain.CategoryPadaria},
	{"amenity", "restaurant", domain.CategoryRestaurante},
}

// shopValues and amenityValues span the fixed tag vocabulary queried.
var (
	shopValues    = "supermarket|convenience|greengrocer|bakery|chemist|mall|department_store|variety_store"
	amenityValues = "pharmacy|cafe|fast_food|restaurant"
)

// MapTags maps an element's raw tag set to the closed category enumeration.
// Any tagged shop that matched no specific rule is a generic store;
// everything else falls back to Outros.
func MapTags(tags map[string]string) domain.Category {
	for _, r := range tagRules {
		if tags[r.key] == r.value {
			return r.category
		}
	}
	if tags["shop"] != "" {
		return domain.CategoryLoja
	}
	return domain.CategoryOutros
}

// Client implements ports.PlaceSource against the Overpass API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates an Overpass client.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 20 * time.Second},
	}
}

// Name identifies the source.
func (c *Client) Name() string { return "overpass" }

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"center,omitempty"`
	Tags map[string]string `json:"tags"`
}

// FindNearby queries nodes and ways carrying the supported tags inside a
// bounding box around the center, and normalizes them to places. Unnamed
// elements are dropped.
func (c *Client) FindNearby(ctx context.Context, center domain.Coordinates, radiusMeters float64) ([]domain.Place, error) {
	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(center.Lat, center.Lon, radiusMeters)
	bbox := fmt.Sprintf("%f,%f,%f,%f", minLat, minLon, maxLat, maxLon)

	query := fmt.Sprintf(`[out:json][timeout:15];
(
  node["shop"~"%s"](%s);
  node["amenity"~"%s"](%s);
  way["shop"~"%s"](%s);
  way["amenity"~"%s"](%s);
);
out center 60;`,
		shopValues, bbox, amenityValues, bbox,
		shopValues, bbox, amenityValues, bbox)

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overpass status %d", resp.StatusCode)
	}

	var body overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("overpass decode: %w", err)
	}

	var places []domain.Place
	for _, el := range body.Elements {
		name := el.Tags["name"]
		if name == "" {
			continue
		}

		lat, lon := el.Lat, el.Lon
		if el.Center != nil {
			lat, lon = el.Center.Lat, el.Center.Lon
		}

		places = append(places, domain.Place{
			ID:       fmt.Sprintf("osm-%s-%d", el.Type, el.ID),
			Name:     name,
			Category: MapTags(el.Tags),
			Address:  formatAddress(el.Tags),
			Location: domain.Coordinates{Lat: lat, Lon: lon},
		})
	}
	return places, nil
}

func formatAddress(tags map[string]string) string {
	street := tags["addr:street"]
	if street == "" {
		return ""
	}
	if num := tags["addr:housenumber"]; num != "" {
		return street + ", " + num
	}
	return street
}
