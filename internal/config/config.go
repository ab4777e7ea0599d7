// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	// Server
	Port int

	// Storage
	DataDir     string
	FeedsConfig string

	// Optional Postgres archive. Empty disables archiving.
	PostgresDSN string

	// Gemini
	GeminiAPIKey   string
	GeminiModel    string
	EmbeddingModel string
	AIEnabled      bool

	// Digest
	TopLimit          int
	RebalanceEnabled  bool
	LowQualityPolicy  string
	FetchTimeoutSec   int
	FeedFetchParallel int

	// Google News freshness hint appended to search queries, e.g. "1d".
	// Empty or "off" disables the rewrite.
	FreshnessWindow string

	Debug bool
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnvIntOrDefault("PORT", 8080),
		DataDir:           getEnvOrDefault("DATA_DIR", "data"),
		FeedsConfig:       getEnvOrDefault("FEEDS_CONFIG", "configs/feeds.yaml"),
		PostgresDSN:       os.Getenv("DATABASE_URL"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		EmbeddingModel:    getEnvOrDefault("GEMINI_EMBEDDING_MODEL", "text-embedding-004"),
		AIEnabled:         getEnvBoolOrDefault("AI_ENABLED", true),
		TopLimit:          getEnvIntOrDefault("DIGEST_TOP_LIMIT", 20),
		RebalanceEnabled:  getEnvBoolOrDefault("DIGEST_REBALANCE_ENABLED", true),
		LowQualityPolicy:  strings.ToLower(strings.TrimSpace(getEnvOrDefault("LOW_QUALITY_POLICY", "drop"))),
		FetchTimeoutSec:   getEnvIntOrDefault("FETCH_TIMEOUT_SEC", 15),
		FeedFetchParallel: getEnvIntOrDefault("FEED_FETCH_PARALLEL", 4),
		FreshnessWindow:   strings.TrimSpace(os.Getenv("GOOGLE_RSS_WHEN")),
		Debug:             getEnvBoolOrDefault("DEBUG", false),
	}

	if cfg.AIEnabled && cfg.GeminiAPIKey == "" {
		// AI stages degrade to rule-only when no key is present.
		cfg.AIEnabled = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d", c.Port)
	}
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR must not be empty")
	}
	if c.TopLimit <= 0 {
		return fmt.Errorf("invalid DIGEST_TOP_LIMIT: %d", c.TopLimit)
	}
	if c.FetchTimeoutSec <= 0 {
		return fmt.Errorf("invalid FETCH_TIMEOUT_SEC: %d", c.FetchTimeoutSec)
	}
	if c.FeedFetchParallel <= 0 {
		return fmt.Errorf("invalid FEED_FETCH_PARALLEL: %d", c.FeedFetchParallel)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
