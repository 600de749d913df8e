package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/JVdev14/ache-pre-os/internal/adapters/googleplaces"
	"github.com/JVdev14/ache-pre-os/internal/adapters/http"
	"github.com/JVdev14/ache-pre-os/internal/adapters/ibge"
	natsadapter "github.com/JVdev14/ache-pre-os/internal/adapters/nats"
	"github.com/JVdev14/ache-pre-os/internal/adapters/nominatim"
	"github.com/JVdev14/ache-pre-os/internal/adapters/openai"
	"github.com/JVdev14/ache-pre-os/internal/adapters/overpass"
	"github.com/JVdev14/ache-pre-os/internal/adapters/postgres"
	"github.com/JVdev14/ache-pre-os/internal/adapters/valkey"
	"github.com/JVdev14/ache-pre-os/internal/adapters/viacep"
	"github.com/JVdev14/ache-pre-os/internal/core/domain"
	"github.com/JVdev14/ache-pre-os/internal/core/ports"
	"github.com/JVdev14/ache-pre-os/internal/core/usecases"
	"github.com/JVdev14/ache-pre-os/internal/pkg/config"
	"github.com/JVdev14/ache-pre-os/internal/pkg/logging"
	"github.com/JVdev14/ache-pre-os/internal/pkg/metrics"
	"github.com/JVdev14/ache-pre-os/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("precofacil-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	// NATS
	var pub ports.EventPublisher
	nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer nc.Close()
		pub = nc
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// External clients
	viacepClient := viacep.New(cfg.External.ViaCEPURL)
	nominatimClient := nominatim.New(cfg.External.NominatimURL)
	overpassClient := overpass.New(cfg.External.OverpassURL)
	ibgeClient := ibge.New(cfg.External.IBGEURL)

	var premium ports.PlaceSource
	if google := googleplaces.New(cfg.External.GoogleAPIKey, ""); google.Configured() {
		premium = google
		slog.Info("google places source enabled")
	}

	var prices ports.PriceSource
	var images ports.ImageGenerator
	if llm := openai.New(cfg.External.OpenAIAPIKey, ""); llm.Configured() {
		prices = llm
		images = llm
		slog.Info("llm price and image backends enabled")
	}

	// Export pool stats to prometheus
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.UpdateDBPoolMetrics(db.Pool.Stat())
			case <-ctx.Done():
				return
			}
		}
	}()

	// Repos
	userRepo := postgres.NewUserRepo(db)
	eventRepo := postgres.NewSearchEventRepo(db)

	// Use cases
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	geocodeSvc := usecases.NewGeocodeService(viacepClient, nominatimClient)
	pricingSvc := usecases.NewPricingService(prices, cfg.Search.PriceBatchSize, rng)
	searchSvc := usecases.NewSearchService(
		geocodeSvc, overpassClient, premium, pricingSvc,
		eventRepo, pub, cacheSvc,
		domain.Coordinates{Lat: cfg.Search.FallbackLat, Lon: cfg.Search.FallbackLon},
		cfg.Search.MaxResults,
		rng,
	)
	quizSvc := usecases.NewQuizService(images)
	authSvc := usecases.NewAuthService(userRepo)
	citySvc := usecases.NewCityService(ibgeClient, cacheSvc)

	deps := &http.Dependencies{
		Search:  searchSvc,
		Geocode: geocodeSvc,
		Quiz:    quizSvc,
		Auth:    authSvc,
		Cities:  citySvc,
		NATS:    natsConn,
		DB:      db,
		Cache:   cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "PreçoFácil API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.precofacil.app",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
