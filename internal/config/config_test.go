package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AuthURL != "http://localhost:8081/api" {
		t.Fatalf("AuthURL = %q", cfg.AuthURL)
	}
	if cfg.IdeasURL != "http://localhost:8082/api/ideas" {
		t.Fatalf("IdeasURL = %q", cfg.IdeasURL)
	}
	if cfg.StateDir == "" {
		t.Fatal("StateDir empty")
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Fatalf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.RatePerSec != 10 || cfg.RateBurst != 20 {
		t.Fatalf("rate = %v/%d", cfg.RatePerSec, cfg.RateBurst)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("REDGIT_AUTH_URL", "https://auth.redgit.org/api")
	t.Setenv("REDGIT_HTTP_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AuthURL != "https://auth.redgit.org/api" {
		t.Fatalf("AuthURL = %q", cfg.AuthURL)
	}
	if cfg.HTTPTimeout != 3*time.Second {
		t.Fatalf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	t.Setenv("REDGIT_HTTP_TIMEOUT", "0s")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero timeout")
	}
}
