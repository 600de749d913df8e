package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JVdev14/ache-pre-os/internal/core/domain"
	"github.com/JVdev14/ache-pre-os/internal/pkg/metrics"
)

// Client calls the OpenAI API for two concerns: estimating product prices
// for a real establishment (PriceSource) and generating an illustrative
// image for a quiz result (ImageGenerator). Without an API key both
// operations return empty results and no error.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

// New creates an OpenAI client.
func New(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   "gpt-4o-mini",
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool { return c.apiKey != "" }

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// priceItem is the shape the model is instructed to emit per product.
type priceItem struct {
	Name       string  `json:"nome"`
	Price      float64 `json:"preco"`
	Confidence string  `json:"confianca"`
}

const pricePrompt = `Você é um assistente de pesquisa de preços no Brasil.
Para o estabelecimento "%s" (categoria %s) na cidade de %s, liste até 5
produtos típicos com preço estimado em reais. Responda APENAS com JSON no
formato {"produtos":[{"nome":"...","preco":0.0,"confianca":"alta|media|baixa"}]}.`

// FetchPrices asks the model for typical product prices at a place.
// Malformed or low-confidence output degrades to an empty result rather
// than an error; the pricing pipeline falls back to mock data.
func (c *Client) FetchPrices(ctx context.Context, place domain.Place, city string) ([]domain.Product, error) {
	if c.apiKey == "" {
		return nil, nil
	}

	prompt := fmt.Sprintf(pricePrompt, place.Name, place.Category, city)
	reqBody := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.2,
		ResponseFormat: &struct {
			Type string `json:"type"`
		}{Type: "json_object"},
	}

	metrics.LLMRequests.WithLabelValues("prices").Inc()

	var body chatResponse
	if err := c.post(ctx, "/v1/chat/completions", reqBody, &body); err != nil {
		return nil, err
	}
	if len(body.Choices) == 0 {
		return nil, nil
	}

	var parsed struct {
		Produtos []priceItem `json:"produtos"`
	}
	content := strings.TrimSpace(body.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		slog.Warn("openai price response not parseable", "place", place.Name, "error", err)
		return nil, nil
	}

	now := time.Now()
	products := make([]domain.Product, 0, len(parsed.Produtos))
	for _, item := range parsed.Produtos {
		if item.Name == "" || item.Price <= 0 {
			continue
		}
		products = append(products, domain.Product{
			ID:          uuid.NewString(),
			Name:        item.Name,
			Price:       item.Price,
			StoreName:   place.Name,
			Category:    place.Category,
			Source:      "llm",
			Confidence:  normalizeConfidence(item.Confidence),
			LastUpdated: &now,
			IsReal:      true,
		})
	}
	return products, nil
}

func normalizeConfidence(s string) domain.Confidence {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "alta":
		return domain.ConfidenceAlta
	case "media", "média":
		return domain.ConfidenceMedia
	default:
		return domain.ConfidenceBaixa
	}
}

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// GenerateImage produces an illustrative image URL for a category.
func (c *Client) GenerateImage(ctx context.Context, category domain.Category) (string, error) {
	if c.apiKey == "" {
		return "", nil
	}

	reqBody := imageRequest{
		Model:  "dall-e-3",
		Prompt: fmt.Sprintf("Ilustração amigável e colorida de um(a) %s brasileiro(a), estilo flat design", category),
		N:      1,
		Size:   "1024x1024",
	}

	metrics.LLMRequests.WithLabelValues("image").Inc()

	var body imageResponse
	if err := c.post(ctx, "/v1/images/generations", reqBody, &body); err != nil {
		return "", err
	}
	if len(body.Data) == 0 {
		return "", fmt.Errorf("openai: empty image response")
	}
	return body.Data[0].URL, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openai status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("openai decode: %w", err)
	}
	return nil
}
