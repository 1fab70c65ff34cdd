package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all deployment-provided settings. It is loaded once at boot
// and treated as immutable.
type Config struct {
	Port string

	// Environment suffixes Secret Manager secret names ("dev" or "prod").
	Environment string

	StorageBackend string // "memory" or "postgres"
	DatabaseURL    string
	DatabaseName   string
	MigrateOnStart bool

	// Auth:
	// - "auth0": resolve bearer tokens through the identity cache
	// - "dev": trust X-Debug-Subject (local only)
	AuthMode   string
	DevSubject string

	Auth0UserInfoURL string
	UserInfoTTL      time.Duration
	UpstreamTimeout  time.Duration

	RateLimitPerMinute int
	RateLimitBurst     int

	OpenAIAPIKey string
	OpenAIModel  string

	GCPProjectID string
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Port:           getenv("PORT", "8080"),
		Environment:    getenv("DAYSCAPE_ENVIRONMENT", "dev"),
		StorageBackend: getenv("STORAGE_BACKEND", "memory"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DatabaseName:   getenv("DAYSCAPE_DB_NAME", "dayscape"),
		AuthMode:       getenv("AUTH_MODE", "auth0"),
		DevSubject:     getenv("DEV_SUBJECT", "dev@local"),

		Auth0UserInfoURL: os.Getenv("AUTH0_USERINFO_URL"),
		UserInfoTTL:      10 * time.Hour,
		UpstreamTimeout:  10 * time.Second,

		RateLimitPerMinute: 120,
		RateLimitBurst:     60,

		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  getenv("OPENAI_MODEL", "gpt-4o-mini"),

		GCPProjectID: os.Getenv("PROJECT_ID"),
	}

	if v := os.Getenv("MIGRATE_ON_START"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("MIGRATE_ON_START must be a boolean: %w", err)
		}
		cfg.MigrateOnStart = b
	}
	if v := os.Getenv("USERINFO_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("USERINFO_TTL must be a duration (e.g. 10h): %w", err)
		}
		cfg.UserInfoTTL = d
	}
	if v := os.Getenv("UPSTREAM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("UPSTREAM_TIMEOUT must be a duration (e.g. 10s): %w", err)
		}
		cfg.UpstreamTimeout = d
	}
	if v := os.Getenv("RATE_LIMIT_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("RATE_LIMIT_PER_MINUTE must be a positive integer")
		}
		cfg.RateLimitPerMinute = n
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("RATE_LIMIT_BURST must be a positive integer")
		}
		cfg.RateLimitBurst = n
	}

	switch cfg.AuthMode {
	case "auth0":
		if cfg.Auth0UserInfoURL == "" {
			return Config{}, fmt.Errorf("AUTH0_USERINFO_URL is required when AUTH_MODE=auth0")
		}
	case "dev":
	default:
		return Config{}, fmt.Errorf("AUTH_MODE must be auth0 or dev, got %q", cfg.AuthMode)
	}

	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
