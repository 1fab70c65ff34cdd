package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("AUTH_MODE", "dev")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port=%q, want 8080", cfg.Port)
	}
	if cfg.StorageBackend != "memory" {
		t.Fatalf("StorageBackend=%q, want memory", cfg.StorageBackend)
	}
	if cfg.UserInfoTTL != 10*time.Hour {
		t.Fatalf("UserInfoTTL=%v, want 10h", cfg.UserInfoTTL)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Fatalf("OpenAIModel=%q", cfg.OpenAIModel)
	}
}

func TestLoadFromEnv_Auth0RequiresUserInfoURL(t *testing.T) {
	t.Setenv("AUTH_MODE", "auth0")
	t.Setenv("AUTH0_USERINFO_URL", "")

	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("expected error when AUTH0_USERINFO_URL is unset")
	}

	t.Setenv("AUTH0_USERINFO_URL", "https://tenant.auth0.com/userinfo")
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Auth0UserInfoURL != "https://tenant.auth0.com/userinfo" {
		t.Fatalf("Auth0UserInfoURL=%q", cfg.Auth0UserInfoURL)
	}
}

func TestLoadFromEnv_InvalidValuesRejected(t *testing.T) {
	t.Setenv("AUTH_MODE", "dev")
	t.Setenv("USERINFO_TTL", "not-a-duration")

	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("expected error for bad USERINFO_TTL")
	}

	t.Setenv("USERINFO_TTL", "2h")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "0")
	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("expected error for non-positive rate limit")
	}
}
