package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on endpoint.
// Adds sensible defaults if not already set by the handler.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != "GET" {
			return err
		}

		// Don't override if already set
		if existing := c.Get("Cache-Control"); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10" // Very short for system checks

		case path == "/metrics":
			ttl = "no-cache" // Metrics are real-time

		case path == "/graphql":
			ttl = "private, max-age=0" // GraphQL varies wildly

		case strings.HasPrefix(path, "/v1/cities/"):
			ttl = "public, max-age=86400" // Municipality lists change rarely

		case strings.HasPrefix(path, "/v1/geocode/"):
			ttl = "public, max-age=3600" // Addresses are stable

		case strings.HasPrefix(path, "/v1/quiz/questions"):
			ttl = "public, max-age=3600" // Fixed question set

		case strings.HasPrefix(path, "/v1/places/nearby"):
			ttl = "public, max-age=300" // 5 min for location queries

		case strings.HasPrefix(path, "/v1/search"):
			ttl = "private, max-age=0" // Prices are randomized per request

		case strings.HasPrefix(path, "/v1/auth"):
			ttl = "no-store" // Never cache credentials

		case strings.HasPrefix(path, "/v1/"):
			ttl = "public, max-age=300" // 5 min default for API endpoints
		}

		if ttl != "" {
			c.Set("Cache-Control", ttl)
		}

		return err
	}
}
