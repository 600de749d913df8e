package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"

	"github.com/JVdev14/ache-pre-os/internal/core/domain"
	"github.com/JVdev14/ache-pre-os/internal/core/ports"
	"github.com/JVdev14/ache-pre-os/internal/pkg/metrics"
)

// baseProduct is an entry of the per-category mock product table.
type baseProduct struct {
	name  string
	price float64
}

// mockCatalog is the fixed per-category product table used when no real
// price could be fetched for a place.
var mockCatalog = map[domain.Category][]baseProduct{
	domain.CategoryMercado: {
		{"Arroz 5kg", 24.90}, {"Feijão 1kg", 8.50}, {"Óleo de soja 900ml", 7.20},
		{"Açúcar 1kg", 4.80}, {"Café 500g", 16.90}, {"Leite integral 1L", 5.40},
		{"Macarrão 500g", 4.30},
	},
	domain.CategoryFarmacia: {
		{"Dipirona 500mg", 9.90}, {"Paracetamol 750mg", 12.50}, {"Vitamina C", 22.00},
		{"Protetor solar FPS 50", 49.90}, {"Soro fisiológico", 6.80}, {"Álcool em gel", 8.90},
	},
	domain.CategoryLanchonete: {
		{"X-Burger", 18.00}, {"X-Salada", 20.50}, {"Porção de batata frita", 15.00},
		{"Refrigerante lata", 6.00}, {"Suco natural 500ml", 9.50}, {"Misto quente", 12.00},
	},
	domain.CategoryCafeteria: {
		{"Café expresso", 6.50}, {"Cappuccino", 12.00}, {"Pão de queijo", 5.50},
		{"Bolo de cenoura (fatia)", 9.00}, {"Croissant", 10.50}, {"Chá gelado", 8.00},
	},
	domain.CategoryPadaria: {
		{"Pão francês (kg)", 15.90}, {"Pão de forma", 9.80}, {"Sonho", 6.50},
		{"Bolo simples", 22.00}, {"Torta salgada (fatia)", 11.00}, {"Broa de milho", 7.50},
	},
	domain.CategoryRestaurante: {
		{"Prato executivo", 32.00}, {"Prato feito", 25.00}, {"Buffet por kg", 69.90},
		{"Suco da casa", 8.50}, {"Sobremesa do dia", 12.00}, {"Marmitex", 22.00},
	},
	domain.CategoryLoja: {
		{"Pilha alcalina (par)", 14.90}, {"Carregador USB", 29.90}, {"Guarda-chuva", 35.00},
		{"Caderno 96 folhas", 12.50}, {"Fone de ouvido", 39.90},
	},
	domain.CategoryOutros: {
		{"Item avulso", 10.00}, {"Serviço básico", 25.00}, {"Produto local", 15.00},
		{"Embalagem presente", 8.00},
	},
}

// PricingService attaches product prices to found places: real prices via an
// LLM-backed source when configured, randomized mock products otherwise.
type PricingService struct {
	source    ports.PriceSource // nil when no real-price backend is configured
	batchSize int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPricingService creates a PricingService. rng is injectable so tests can
// assert exact mock output; pass rand.New(rand.NewSource(time.Now().UnixNano()))
// in production wiring.
func NewPricingService(source ports.PriceSource, batchSize int, rng *rand.Rand) *PricingService {
	if batchSize <= 0 {
		batchSize = 5
	}
	return &PricingService{source: source, batchSize: batchSize, rng: rng}
}

// AttachPrices fills the Products field of every place, processing places in
// fixed-size batches with one concurrent lookup per place. Each batch is
// awaited in full before the next one starts. Per-place failures fall back to
// mock products independently; the call itself never fails.
func (s *PricingService) AttachPrices(ctx context.Context, places []domain.Place, city string) []domain.Place {
	out := make([]domain.Place, len(places))
	copy(out, places)

	for start := 0; start < len(out); start += s.batchSize {
		end := start + s.batchSize
		if end > len(out) {
			end = len(out)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				out[i].Products = s.pricesFor(ctx, out[i], city)
			}(i)
		}
		wg.Wait()
	}

	return out
}

// pricesFor tries the real-price source first and falls back to the mock
// catalog when it is unconfigured, fails, or yields nothing usable.
func (s *PricingService) pricesFor(ctx context.Context, place domain.Place, city string) []domain.Product {
	if s.source != nil {
		products, err := s.source.FetchPrices(ctx, place, city)
		if err != nil {
			slog.Warn("real price lookup failed, using mock products",
				"place", place.Name, "error", err)
		} else {
			kept := filterConfident(products)
			if len(kept) > 0 {
				metrics.PriceLookups.WithLabelValues("real").Inc()
				return kept
			}
		}
	}
	metrics.PriceLookups.WithLabelValues("mock").Inc()
	return s.MockProducts(place)
}

// filterConfident keeps only high- and medium-confidence entries.
func filterConfident(products []domain.Product) []domain.Product {
	var kept []domain.Product
	for _, p := range products {
		if p.Confidence == domain.ConfidenceAlta || p.Confidence == domain.ConfidenceMedia {
			kept = append(kept, p)
		}
	}
	return kept
}

// MockProducts generates 3 to 5 randomized products from the fixed table of
// the place's category. Prices get a uniform multiplier in [0.85, 1.25],
// rounded to 2 decimals. Output is intentionally different on every call.
func (s *PricingService) MockProducts(place domain.Place) []domain.Product {
	table, ok := mockCatalog[place.Category]
	if !ok {
		table = mockCatalog[domain.CategoryOutros]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	count := 3 + s.rng.Intn(3) // 3..5
	if count > len(table) {
		count = len(table)
	}

	picks := make([]baseProduct, len(table))
	copy(picks, table)
	s.rng.Shuffle(len(picks), func(i, j int) {
		picks[i], picks[j] = picks[j], picks[i]
	})

	products := make([]domain.Product, 0, count)
	for i := 0; i < count; i++ {
		factor := 0.85 + s.rng.Float64()*0.40
		products = append(products, domain.Product{
			ID:        fmt.Sprintf("%s-mock-%d", place.ID, i),
			Name:      picks[i].name,
			Price:     math.Round(picks[i].price*factor*100) / 100,
			StoreName: place.Name,
			Category:  place.Category,
			IsReal:    false,
		})
	}
	return products
}
