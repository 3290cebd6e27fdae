// Package config loads server configuration from environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all server settings.
type Config struct {
	Port        int      `env:"PORT" envDefault:"8080"`
	DBPath      string   `env:"DB_PATH" envDefault:"data/villagecraft.db"`
	CatalogPath string   `env:"CATALOG_PATH"`                // Optional YAML override; empty = built-in rules
	WorldSeed   int64    `env:"WORLD_SEED" envDefault:"42"`  // Terrain noise seed
	WorldRadius int      `env:"WORLD_RADIUS" envDefault:"22"`
	AdminKey    string   `env:"ADMIN_KEY"` // Bearer token for admin endpoints; empty = disabled
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
