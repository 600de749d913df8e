package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Search    SearchConfig    `mapstructure:"search"`
	External  ExternalConfig  `mapstructure:"external"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

// SearchConfig tunes the establishment-search pipeline.
type SearchConfig struct {
	DefaultRadiusMeters float64 `mapstructure:"default_radius_meters"`
	MaxResults          int     `mapstructure:"max_results"`
	PriceBatchSize      int     `mapstructure:"price_batch_size"`
	FallbackLat         float64 `mapstructure:"fallback_lat"`
	FallbackLon         float64 `mapstructure:"fallback_lon"`
}

// ExternalConfig holds the third-party endpoints the pipeline composes.
// GoogleAPIKey and OpenAIAPIKey are optional: an empty key switches the
// corresponding feature to its fallback behavior.
type ExternalConfig struct {
	OverpassURL  string `mapstructure:"overpass_url"`
	NominatimURL string `mapstructure:"nominatim_url"`
	ViaCEPURL    string `mapstructure:"viacep_url"`
	IBGEURL      string `mapstructure:"ibge_url"`
	GoogleAPIKey string `mapstructure:"google_api_key"`
	OpenAIAPIKey string `mapstructure:"openai_api_key"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "precofacil")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "precofacil")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("search.default_radius_meters", 3000)
	v.SetDefault("search.max_results", 20)
	v.SetDefault("search.price_batch_size", 5)
	// Praça da Sé, São Paulo — used when geocoding fails entirely.
	v.SetDefault("search.fallback_lat", -23.5505)
	v.SetDefault("search.fallback_lon", -46.6333)
	v.SetDefault("external.overpass_url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("external.nominatim_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("external.viacep_url", "https://viacep.com.br")
	v.SetDefault("external.ibge_url", "https://servicodados.ibge.gov.br")
	v.SetDefault("external.google_api_key", "")
	v.SetDefault("external.openai_api_key", "")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: PRECOFACIL_DATABASE_HOST → database.host
	v.SetEnvPrefix("PRECOFACIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Search.DefaultRadiusMeters <= 0 || c.Search.DefaultRadiusMeters > 50000 {
		errs = append(errs, "search.default_radius_meters must be 1-50000")
	}
	if c.Search.MaxResults <= 0 {
		errs = append(errs, "search.max_results must be positive")
	}
	if c.Search.PriceBatchSize <= 0 {
		errs = append(errs, "search.price_batch_size must be positive")
	}
	if c.External.OverpassURL == "" {
		errs = append(errs, "external.overpass_url is required")
	}
	if c.External.NominatimURL == "" {
		errs = append(errs, "external.nominatim_url is required")
	}
	if c.External.ViaCEPURL == "" {
		errs = append(errs, "external.viacep_url is required")
	}
	if c.External.IBGEURL == "" {
		errs = append(errs, "external.ibge_url is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
