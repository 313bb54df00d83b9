/**
 * @description
 * Configuration loader for the Harpoon Backend.
 * Responsible for reading environment variables, setting defaults, and performing strict validation.
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files
 * - standard "os": For reading env vars
 *
 * @notes
 * - Fails fast if critical variables (Database URL) are missing.
 * - Load() returns an explicit Config value that is passed by reference into every
 *   collaborator; nothing reads configuration ambiently after startup.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	DB         DBConfig
	Redis      RedisConfig
	Polymarket PolymarketConfig
	Cache      CacheConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
	Env  string // "development" or "production"
}

// DBConfig holds PostgreSQL settings
type DBConfig struct {
	URL string
}

// RedisConfig holds Redis settings
type RedisConfig struct {
	URL string
}

// PolymarketConfig holds Polymarket API endpoints
type PolymarketConfig struct {
	DataAPIURL          string // Data API for trades, positions, PnL
	GammaURL            string // Gamma API for market/event metadata and profile search
	OrdersSubgraphURL   string // Goldsky orderbook subgraph (CLOB order fills)
	ActivitySubgraphURL string // Goldsky activity subgraph (splits, merges, redemptions)
}

// CacheConfig holds the trade-history refresh policy settings
type CacheConfig struct {
	TTL time.Duration // watermark freshness window; refresh only when exceeded
}

// Load reads .env file and populates the Config struct
func Load() (*Config, error) {
	// Attempt to load .env, but don't crash if it fails (k8s/prod might inject env vars directly)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("GO_ENV", "development"),
		},
		DB: DBConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Polymarket: PolymarketConfig{
			DataAPIURL:          getEnv("POLYMARKET_DATA_API_URL", "https://data-api.polymarket.com"),
			GammaURL:            getEnv("POLYMARKET_GAMMA_URL", "https://gamma-api.polymarket.com"),
			OrdersSubgraphURL:   getEnv("POLYMARKET_ORDERS_SUBGRAPH_URL", "https://api.goldsky.com/api/public/project_cl6mb8i9h0003e201j6li0diw/subgraphs/orderbook-subgraph/prod/gn"),
			ActivitySubgraphURL: getEnv("POLYMARKET_ACTIVITY_SUBGRAPH_URL", "https://api.goldsky.com/api/public/project_cl6mb8i9h0003e201j6li0diw/subgraphs/activity-subgraph/0.0.4/gn"),
		},
		Cache: CacheConfig{
			TTL: time.Duration(getEnvAsInt("CACHE_TTL_MINUTES", 5)) * time.Minute,
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks for required variables
func validate(cfg *Config) error {
	if cfg.DB.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL_MINUTES must be positive")
	}
	return nil
}

// Helper to get env var with default
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Helper to get env var as int
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
