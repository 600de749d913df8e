package http

import (
	"github.com/nats-io/nats.go"

	"github.com/JVdev14/ache-pre-os/internal/adapters/postgres"
	"github.com/JVdev14/ache-pre-os/internal/adapters/valkey"
	"github.com/JVdev14/ache-pre-os/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Search  *usecases.SearchService
	Geocode *usecases.GeocodeService
	Quiz    *usecases.QuizService
	Auth    *usecases.AuthService
	Cities  *usecases.CityService
	NATS    *nats.Conn
	DB      *postgres.DB
	Cache   *valkey.Cache
}
