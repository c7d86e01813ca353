package infra

import (
	"testing"
	"time"
)

func TestLoadConfigRequiresAPIURL(t *testing.T) {
	t.Setenv("WALLPAPER_API_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error when WALLPAPER_API_URL is missing")
	}
}

func TestLoadConfigRejectsRelativeAPIURL(t *testing.T) {
	t.Setenv("WALLPAPER_API_URL", "/api")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for relative WALLPAPER_API_URL")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("WALLPAPER_API_URL", "http://localhost:8080/")
	t.Setenv("PORT", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:8080" {
		t.Fatalf("APIBaseURL mismatch: got %q", cfg.APIBaseURL)
	}
	if cfg.Port != "3000" {
		t.Fatalf("Port mismatch: got %q want %q", cfg.Port, "3000")
	}
	if cfg.AppEnv != "development" {
		t.Fatalf("AppEnv mismatch: got %q", cfg.AppEnv)
	}
	if cfg.RequestTimeout != 0 {
		t.Fatalf("RequestTimeout should default to no timeout, got %s", cfg.RequestTimeout)
	}
	if len(cfg.AllowedOrigins) != 0 {
		t.Fatalf("AllowedOrigins should be empty: %#v", cfg.AllowedOrigins)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("WALLPAPER_API_URL", "https://wallpapers.example.com")
	t.Setenv("PORT", "4111")
	t.Setenv("DEFAULT_LOCALE", "id")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "20")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example.com, http://b.example.com ,")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "4111" {
		t.Fatalf("Port mismatch: got %q", cfg.Port)
	}
	if cfg.DefaultLocale != "id" {
		t.Fatalf("DefaultLocale mismatch: got %q", cfg.DefaultLocale)
	}
	if cfg.RequestTimeout != 20*time.Second {
		t.Fatalf("RequestTimeout mismatch: got %s", cfg.RequestTimeout)
	}
	expected := []string{"http://a.example.com", "http://b.example.com"}
	if len(cfg.AllowedOrigins) != len(expected) {
		t.Fatalf("AllowedOrigins mismatch: got %#v want %#v", cfg.AllowedOrigins, expected)
	}
	for i, origin := range expected {
		if cfg.AllowedOrigins[i] != origin {
			t.Fatalf("AllowedOrigins[%d] = %q, want %q", i, cfg.AllowedOrigins[i], origin)
		}
	}
}
