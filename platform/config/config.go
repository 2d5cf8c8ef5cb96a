package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// PooolEnvironment selects which CRM instance the backend talks to.
type PooolEnvironment string

const (
	EnvProduction PooolEnvironment = "production"
	EnvStaging    PooolEnvironment = "staging"
	EnvCustom     PooolEnvironment = "custom"
)

type Config struct {
	Env            string
	HTTPAddr       string
	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool

	// Default CRM environment; callers may override per request.
	PooolEnv       PooolEnvironment
	PooolCustomURL string

	PooolTimeout        time.Duration
	PooolConnectTimeout time.Duration
	// Requests per second toward the CRM API, per run.
	PooolRateLimit float64

	PreviewLimit int

	// Per-IP rate limit for the HTTP surface.
	IPRateLimit float64
	IPRateBurst int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	pooolEnv := PooolEnvironment(strings.ToLower(getEnv("POOOL_ENV", "production")))
	customURL := getEnv("POOOL_CUSTOM_URL", "")

	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		CORSAllowAll:        corsAllowAll,
		CORSOrigins:         corsOrigins,
		CORSAllowCreds:      strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		PooolEnv:            pooolEnv,
		PooolCustomURL:      customURL,
		PooolTimeout:        mustDuration(getEnv("POOOL_TIMEOUT", "30s")),
		PooolConnectTimeout: mustDuration(getEnv("POOOL_CONNECT_TIMEOUT", "10s")),
		PooolRateLimit:      mustFloat(getEnv("POOOL_RATE_LIMIT", "10")),
		PreviewLimit:        mustInt(getEnv("PREVIEW_LIMIT", "20")),
		IPRateLimit:         mustFloat(getEnv("IP_RATE_LIMIT", "20")),
		IPRateBurst:         mustInt(getEnv("IP_RATE_BURST", "40")),
	}

	switch cfg.PooolEnv {
	case EnvProduction, EnvStaging:
	case EnvCustom:
		if cfg.PooolCustomURL == "" {
			return nil, fmt.Errorf("POOOL_CUSTOM_URL is required when POOOL_ENV is custom")
		}
	default:
		return nil, fmt.Errorf("POOOL_ENV must be production, staging or custom, got %q", cfg.PooolEnv)
	}

	if cfg.PooolTimeout <= 0 || cfg.PooolConnectTimeout <= 0 {
		return nil, fmt.Errorf("POOOL_TIMEOUT and POOOL_CONNECT_TIMEOUT must be positive durations")
	}
	if cfg.PreviewLimit <= 0 {
		return nil, fmt.Errorf("PREVIEW_LIMIT must be positive")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

func mustFloat(value string) float64 {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return f
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}
