package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/JVdev14/ache-pre-os/internal/adapters/http"
	"github.com/JVdev14/ache-pre-os/internal/core/domain"
	"github.com/JVdev14/ache-pre-os/internal/core/usecases"
)

// ---- Mock services ----

type mockPostal struct {
	lookupFn func(ctx context.Context, cep string) (*domain.Address, error)
}

func (m *mockPostal) Lookup(ctx context.Context, cep string) (*domain.Address, error) {
	if m.lookupFn != nil {
		return m.lookupFn(ctx, cep)
	}
	return &domain.Address{CEP: cep, City: "São Paulo", State: "SP"}, nil
}

type mockGeocoder struct {
	addressFn func(ctx context.Context, addr *domain.Address) (*domain.Coordinates, error)
	cityFn    func(ctx context.Context, city, state string) (*domain.Coordinates, error)
}

func (m *mockGeocoder) GeocodeAddress(ctx context.Context, addr *domain.Address) (*domain.Coordinates, error) {
	if m.addressFn != nil {
		return m.addressFn(ctx, addr)
	}
	return &domain.Coordinates{Lat: -23.55, Lon: -46.63}, nil
}

func (m *mockGeocoder) GeocodeCity(ctx context.Context, city, state string) (*domain.Coordinates, error) {
	if m.cityFn != nil {
		return m.cityFn(ctx, city, state)
	}
	return &domain.Coordinates{Lat: -23.55, Lon: -46.63}, nil
}

type mockPlaceSource struct {
	findFn func(ctx context.Context, center domain.Coordinates, radiusMeters float64) ([]domain.Place, error)
}

func (m *mockPlaceSource) Name() string { return "overpass" }
func (m *mockPlaceSource) FindNearby(ctx context.Context, center domain.Coordinates, radiusMeters float64) ([]domain.Place, error) {
	if m.findFn != nil {
		return m.findFn(ctx, center, radiusMeters)
	}
	return []domain.Place{
		{ID: "osm-1", Name: "Mercado Central", Category: domain.CategoryMercado, Location: center},
	}, nil
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User)}
}

func (r *memUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.Email] = user
	return nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[email], nil
}

type mockCityDirectory struct {
	listFn func(ctx context.Context, uf string) ([]string, error)
}

func (m *mockCityDirectory) ListByState(ctx context.Context, uf string) ([]string, error) {
	if m.listFn != nil {
		return m.listFn(ctx, uf)
	}
	return []string{"Campinas", "Santos", "São Paulo"}, nil
}

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	geocode := usecases.NewGeocodeService(&mockPostal{}, &mockGeocoder{})
	pricing := usecases.NewPricingService(nil, 5, rand.New(rand.NewSource(1)))
	search := usecases.NewSearchService(
		geocode, &mockPlaceSource{}, nil, pricing, nil, nil, nil,
		domain.Coordinates{Lat: -23.5505, Lon: -46.6333}, 20,
		rand.New(rand.NewSource(2)),
	)

	d := &handler.Dependencies{
		Search:  search,
		Geocode: geocode,
		Quiz:    usecases.NewQuizService(nil),
		Auth:    usecases.NewAuthService(newMemUserRepo()),
		Cities:  usecases.NewCityService(&mockCityDirectory{}, nil),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// ---- Search handler tests ----

func TestSearch_MissingParams(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/search", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var apiErr struct {
		Code string `json:"code"`
	}
	json.NewDecoder(resp.Body).Decode(&apiErr)
	if apiErr.Code != "bad_request" {
		t.Errorf("expected bad_request error, got %s", apiErr.Code)
	}
}

func TestSearch_InvalidCEP(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/search?cep=12ab", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSearch_ByCEP(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/search?cep=01310-100", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result domain.SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Kind != "cep" {
		t.Errorf("expected kind cep, got %q", result.Kind)
	}
	if result.Source != "overpass" {
		t.Errorf("expected source overpass, got %q", result.Source)
	}
	if len(result.Places) != 1 {
		t.Fatalf("expected 1 place, got %d", len(result.Places))
	}
	if len(result.Places[0].Products) == 0 {
		t.Error("expected products attached")
	}
}

func TestSearch_ByCity(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/search?city=Campinas&state=SP", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result domain.SearchResult
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Kind != "city" {
		t.Errorf("expected kind city, got %q", result.Kind)
	}
}

func TestSearch_BadRadius(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/search?cep=01310100&radius=50000", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSearch_CapsAtTwenty(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		geocode := usecases.NewGeocodeService(&mockPostal{}, &mockGeocoder{})
		pricing := usecases.NewPricingService(nil, 5, rand.New(rand.NewSource(1)))
		d.Search = usecases.NewSearchService(
			geocode,
			&mockPlaceSource{
				findFn: func(ctx context.Context, c domain.Coordinates, r float64) ([]domain.Place, error) {
					var places []domain.Place
					for i := 0; i < 30; i++ {
						places = append(places, domain.Place{
							ID:       fmt.Sprintf("osm-%d", i),
							Name:     fmt.Sprintf("Loja %d", i),
							Category: domain.CategoryLoja,
							Location: domain.Coordinates{Lat: c.Lat + float64(i)*0.001, Lon: c.Lon},
						})
					}
					return places, nil
				},
			},
			nil, pricing, nil, nil, nil,
			domain.Coordinates{Lat: -23.5505, Lon: -46.6333}, 20,
			rand.New(rand.NewSource(2)),
		)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/search?cep=01310100", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result domain.SearchResult
	json.NewDecoder(resp.Body).Decode(&result)
	if len(result.Places) != 20 {
		t.Errorf("expected 20 places, got %d", len(result.Places))
	}
	for i := 1; i < len(result.Places); i++ {
		if result.Places[i].DistanceKm < result.Places[i-1].DistanceKm {
			t.Fatal("places not sorted by distance")
		}
	}
}

// ---- Nearby places ----

func TestNearbyPlaces_MissingParams(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/places/nearby", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestNearbyPlaces_ZeroCoordinateAccepted(t *testing.T) {
	app := setupApp(makeDeps())

	// Zero is a valid latitude (the equator), not a missing parameter.
	req := httptest.NewRequest("GET", "/v1/places/nearby?lat=0&lon=-46.63", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestNearbyPlaces_Success(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/places/nearby?lat=-23.55&lon=-46.63&radius=2000", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result domain.SearchResult
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Kind != "coords" {
		t.Errorf("expected kind coords, got %q", result.Kind)
	}
}

// ---- Geocode ----

func TestGeocodeCEP_Invalid(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/geocode/cep/123", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGeocodeCEP_Success(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/geocode/cep/01310100", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result domain.GeocodeResult
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Address == nil || result.Address.City != "São Paulo" {
		t.Errorf("unexpected address %+v", result.Address)
	}
}

// ---- Cities ----

func TestCities_InvalidUF(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/cities/SPX", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCities_Paginated(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/cities/SP?offset=1&limit=1", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []string `json:"data"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Pagination.Total != 3 {
		t.Errorf("expected total 3, got %d", result.Pagination.Total)
	}
	if len(result.Data) != 1 || result.Data[0] != "Santos" {
		t.Errorf("unexpected page %v", result.Data)
	}
}

// ---- Quiz ----

func TestQuizQuestions(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/quiz/questions", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Questions []domain.QuizQuestion `json:"questions"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if len(result.Questions) != 3 {
		t.Errorf("expected 3 questions, got %d", len(result.Questions))
	}
}

func TestQuizAnswers_Incomplete(t *testing.T) {
	app := setupApp(makeDeps())

	body := strings.NewReader(`{"answers": ["food"]}`)
	req := httptest.NewRequest("POST", "/v1/quiz/answers", body)
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestQuizAnswers_Recommendation(t *testing.T) {
	app := setupApp(makeDeps())

	body := strings.NewReader(`{"answers": ["food", "variety", "large"]}`)
	req := httptest.NewRequest("POST", "/v1/quiz/answers", body)
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result domain.QuizResult
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Category != domain.CategoryMercado {
		t.Errorf("expected Mercado, got %q", result.Category)
	}
}

// ---- Auth ----

func TestAuth_RegisterLoginFlow(t *testing.T) {
	app := setupApp(makeDeps())

	register := func(body string) int {
		req := httptest.NewRequest("POST", "/v1/auth/register", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatal(err)
		}
		return resp.StatusCode
	}

	if code := register(`{"email":"ana@example.com","password":"segredo123","name":"Ana"}`); code != 201 {
		t.Fatalf("register: expected 201, got %d", code)
	}
	if code := register(`{"email":"ana@example.com","password":"outra123","name":"Ana"}`); code != 409 {
		t.Fatalf("duplicate register: expected 409, got %d", code)
	}
	if code := register(`{"email":"bia@example.com","password":"curta","name":"Bia"}`); code != 400 {
		t.Fatalf("weak password: expected 400, got %d", code)
	}

	// Wrong password
	req := httptest.NewRequest("POST", "/v1/auth/login",
		strings.NewReader(`{"email":"ana@example.com","password":"errada123"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 401 {
		t.Fatalf("wrong password: expected 401, got %d", resp.StatusCode)
	}

	// Successful login
	req = httptest.NewRequest("POST", "/v1/auth/login",
		strings.NewReader(`{"email":"ana@example.com","password":"segredo123"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}

	var session domain.Session
	json.NewDecoder(resp.Body).Decode(&session)
	if session.Token == "" {
		t.Fatal("expected session token")
	}

	// Authenticated identity
	req = httptest.NewRequest("GET", "/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("me: expected 200, got %d", resp.StatusCode)
	}

	// Logout invalidates the token
	req = httptest.NewRequest("POST", "/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("logout: expected 200, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 401 {
		t.Fatalf("me after logout: expected 401, got %d", resp.StatusCode)
	}
}

func TestAuth_MeWithoutToken(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/auth/me", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 401 {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestRecentSearches_RequiresAuth(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/searches/recent", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 401 {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

// ---- Misc ----

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestCategories(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/categories", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Categories []domain.Category `json:"categories"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if len(result.Categories) != 8 {
		t.Errorf("expected 8 categories, got %d", len(result.Categories))
	}
}

func TestWebSocket_UnavailableWithoutBroker(t *testing.T) {
	// deps.NATS stays nil; an upgrade attempt must be refused instead of
	// reaching the relay.
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestGraphQL_Categories(t *testing.T) {
	app := setupApp(makeDeps())

	body := strings.NewReader(`{"query": "{ categories }"}`)
	req := httptest.NewRequest("POST", "/graphql", body)
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			Categories []string `json:"categories"`
		} `json:"data"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if len(result.Data.Categories) != 8 {
		t.Errorf("expected 8 categories via graphql, got %d", len(result.Data.Categories))
	}
}
