package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	Port             string
	DatabaseURL      string
	ArticlesAPIURL   string
	ArticlesTimeout  time.Duration
	ArticleCacheTTL  time.Duration
	PlanCacheTTL     time.Duration
	PlanConcurrency  int
	CorsOrigins      []string
	LogDir           string
	LogRetentionDays int
	LogLevel         string
}

func Load() (Config, error) {
	cfg := Config{
		Port:             envOr("PORT", "8080"),
		DatabaseURL:      envOr("DATABASE_URL", ""),
		ArticlesAPIURL:   envOr("ARTICLES_API_URL", ""),
		ArticlesTimeout:  seconds(envOrInt("ARTICLES_TIMEOUT_SECONDS", 10)),
		ArticleCacheTTL:  seconds(envOrInt("ARTICLE_CACHE_SECONDS", 60)),
		PlanCacheTTL:     seconds(envOrInt("PLAN_CACHE_SECONDS", 15)),
		PlanConcurrency:  envOrInt("PLAN_CONCURRENCY", 4),
		CorsOrigins:      parseCSV(envOr("CORS_ORIGINS", "")),
		LogDir:           envOr("LOG_DIR", "storage/logs"),
		LogRetentionDays: clamp(envOrInt("LOG_RETENTION_DAYS", 7), 1, 7),
		LogLevel:         strings.ToLower(envOr("LOG_LEVEL", "info")),
	}
	if cfg.ArticlesAPIURL == "" {
		return cfg, errors.New("missing env var: ARTICLES_API_URL")
	}
	if cfg.PlanConcurrency < 1 {
		cfg.PlanConcurrency = 1
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func seconds(value int) time.Duration {
	if value < 0 {
		value = 0
	}
	return time.Duration(value) * time.Second
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
