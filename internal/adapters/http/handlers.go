package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/JVdev14/ache-pre-os/internal/core/domain"
	"github.com/JVdev14/ache-pre-os/internal/core/usecases"
)

// sessionFrom resolves the bearer token of a request to an active session.
// Searches work anonymously, so a missing or stale token is not an error here.
func sessionFrom(c *fiber.Ctx, deps *Dependencies) *domain.Session {
	auth := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(auth, "Bearer ") {
		return nil
	}
	token := strings.TrimPrefix(auth, "Bearer ")
	if token == "" {
		return nil
	}
	session, err := deps.Auth.Current(token)
	if err != nil {
		return nil
	}
	return session
}

// SearchHandler runs the full establishment search from a CEP or a city name.
// GET /v1/search?cep=01310100  or  ?city=Campinas&state=SP
func SearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cep := c.Query("cep")
		city := c.Query("city")
		state := c.Query("state")
		radius := c.QueryFloat("radius", 2000)

		if radius <= 0 || radius > 10000 {
			return errBadRequest(c, "radius must be between 1 and 10000 meters")
		}

		userID := ""
		if s := sessionFrom(c, deps); s != nil {
			userID = s.UserID
		}

		var (
			result *domain.SearchResult
			err    error
		)
		switch {
		case cep != "":
			result, err = deps.Search.SearchByCEP(c.Context(), cep, radius, userID)
		case city != "":
			result, err = deps.Search.SearchByCity(c.Context(), city, state, radius, userID)
		default:
			return errBadRequest(c, "cep or city query parameter is required")
		}

		if err != nil {
			if errors.Is(err, usecases.ErrInvalidCEP) || errors.Is(err, usecases.ErrEmptyQuery) {
				return errBadRequest(c, err.Error())
			}
			return errInternal(c, err.Error())
		}

		return c.JSON(result)
	}
}

// NearbyPlacesHandler searches establishments around an explicit coordinate.
// GET /v1/places/nearby?lat=-23.55&lon=-46.63&radius=2000
func NearbyPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Query("lat") == "" || c.Query("lon") == "" {
			return errBadRequest(c, "lat and lon are required")
		}
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		radius := c.QueryFloat("radius", 2000)
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return errBadRequest(c, "lat/lon out of range")
		}
		if radius <= 0 || radius > 10000 {
			return errBadRequest(c, "radius must be between 1 and 10000 meters")
		}

		userID := ""
		if s := sessionFrom(c, deps); s != nil {
			userID = s.UserID
		}

		result, err := deps.Search.SearchByCoords(c.Context(),
			domain.Coordinates{Lat: lat, Lon: lon}, radius, userID)
		if err != nil {
			return errInternal(c, err.Error())
		}

		return c.JSON(result)
	}
}

// GeocodeCEPHandler resolves a CEP to an address and coordinates.
// GET /v1/geocode/cep/:cep
func GeocodeCEPHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cep := c.Params("cep")

		result, err := deps.Geocode.ResolveCEP(c.Context(), cep)
		if err != nil {
			if errors.Is(err, usecases.ErrInvalidCEP) {
				return errBadRequest(c, err.Error())
			}
			return errNotFound(c, "cep could not be resolved")
		}

		return c.JSON(result)
	}
}

// CitiesHandler lists the municipalities of a state.
// GET /v1/cities/:uf
func CitiesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uf := c.Params("uf")

		cities, err := deps.Cities.ListByState(c.Context(), uf)
		if err != nil {
			if errors.Is(err, usecases.ErrInvalidUF) {
				return errBadRequest(c, err.Error())
			}
			return errInternal(c, err.Error())
		}

		// Apply offset/limit pagination on the full list
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 1000 {
			limit = 100
		}

		total := len(cities)
		if offset >= total {
			cities = nil
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			cities = cities[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: cities, Pagination: pg})
	}
}

// QuizQuestionsHandler returns the fixed quiz question set.
// GET /v1/quiz/questions
func QuizQuestionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"questions": deps.Quiz.Questions(),
		})
	}
}

// QuizAnswersHandler evaluates a full answer set to a recommendation.
// POST /v1/quiz/answers  {"answers":["food","variety","large"]}
func QuizAnswersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Answers []string `json:"answers"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result, err := deps.Quiz.Recommend(c.Context(), req.Answers)
		if err != nil {
			if errors.Is(err, usecases.ErrIncompleteQuiz) {
				return errBadRequest(c, err.Error())
			}
			return errInternal(c, err.Error())
		}

		return c.JSON(result)
	}
}

// RegisterHandler creates a user account.
// POST /v1/auth/register  {"email":..., "password":..., "name":...}
func RegisterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
			Name     string `json:"name"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		user, err := deps.Auth.Register(c.Context(), req.Email, req.Password, req.Name)
		if err != nil {
			switch {
			case errors.Is(err, usecases.ErrEmailTaken):
				return errConflict(c, err.Error())
			case errors.Is(err, usecases.ErrMissingFields),
				errors.Is(err, usecases.ErrInvalidEmail),
				errors.Is(err, usecases.ErrWeakPassword):
				return errBadRequest(c, err.Error())
			default:
				return errInternal(c, err.Error())
			}
		}

		return c.Status(201).JSON(user)
	}
}

// LoginHandler verifies credentials and issues a session token.
// POST /v1/auth/login  {"email":..., "password":...}
func LoginHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		session, err := deps.Auth.Login(c.Context(), req.Email, req.Password)
		if err != nil {
			return errUnauthorized(c, usecases.ErrInvalidCredentials.Error())
		}

		return c.JSON(session)
	}
}

// LogoutHandler invalidates the current session token.
// POST /v1/auth/logout
func LogoutHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if token != "" {
			deps.Auth.Logout(token)
		}
		return c.JSON(fiber.Map{"status": "logged out"})
	}
}

// MeHandler returns the session owner's identity.
// GET /v1/auth/me
func MeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := sessionFrom(c, deps)
		if session == nil {
			return errUnauthorized(c, "missing or invalid session token")
		}
		return c.JSON(session)
	}
}

// RecentSearchesHandler returns the caller's latest recorded searches.
// GET /v1/searches/recent?limit=10
func RecentSearchesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := sessionFrom(c, deps)
		if session == nil {
			return errUnauthorized(c, "missing or invalid session token")
		}

		limit := c.QueryInt("limit", 10)
		events, err := deps.Search.RecentSearches(c.Context(), session.UserID, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		return c.JSON(fiber.Map{
			"searches": events,
			"count":    len(events),
		})
	}
}

// CategoriesHandler returns the closed category set.
// GET /v1/categories
func CategoriesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "public, max-age=86400")
		return c.JSON(fiber.Map{"categories": domain.Categories})
	}
}
