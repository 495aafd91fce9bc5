// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is shared by cmd/server and cmd/deckctl.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// CatalogURL is the card catalog service base (GET /cards, /card/{id}, /filters).
	CatalogURL string `env:"GUNDAM_CATALOG_URL" envDefault:"http://localhost:8000"`
	// APIURL is the persistence and share service base (/auth/...).
	APIURL string `env:"GUNDAM_API_URL" envDefault:"http://localhost:8000"`
	// PublicOrigin prefixes share links: <origin>/collection/view/<shareId>.
	PublicOrigin string `env:"GUNDAM_PUBLIC_ORIGIN" envDefault:"http://localhost:5173"`

	HTTPTimeout       time.Duration `env:"GUNDAM_HTTP_TIMEOUT" envDefault:"10s"`
	EnrichConcurrency int           `env:"GUNDAM_ENRICH_CONCURRENCY" envDefault:"8"`

	// CatalogDataDir, when set, serves the catalog from CSV files instead of CatalogURL.
	CatalogDataDir string `env:"GUNDAM_CATALOG_DATA_DIR"`

	// Token is the bearer credential deckctl sends; the server takes it per request.
	Token string `env:"GUNDAM_TOKEN"`

	LogLevel string `env:"GUNDAM_LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"GUNDAM_LOG_JSON" envDefault:"false"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.CatalogURL = strings.TrimRight(cfg.CatalogURL, "/")
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.PublicOrigin = strings.TrimRight(cfg.PublicOrigin, "/")
	if cfg.EnrichConcurrency < 1 {
		return Config{}, fmt.Errorf("GUNDAM_ENRICH_CONCURRENCY must be positive, got %d", cfg.EnrichConcurrency)
	}
	return cfg, nil
}
