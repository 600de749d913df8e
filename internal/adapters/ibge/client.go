package ibge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client implements ports.CityDirectory against the IBGE localities API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates an IBGE client.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type municipio struct {
	Nome string `json:"nome"`
}

// ListByState returns the municipality names of a UF.
func (c *Client) ListByState(ctx context.Context, uf string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/api/v1/localidades/estados/%s/municipios", c.baseURL, uf)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ibge request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ibge status %d", resp.StatusCode)
	}

	var municipios []municipio
	if err := json.NewDecoder(resp.Body).Decode(&municipios); err != nil {
		return nil, fmt.Errorf("ibge decode: %w", err)
	}

	cities := make([]string, 0, len(municipios))
	for _, m := range municipios {
		cities = append(cities, m.Nome)
	}
	return cities, nil
}
