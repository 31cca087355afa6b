// Package config loads client configuration from env and an optional .env
// file using Viper.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the client binaries need to reach the two remote
// services and keep local state.
type Config struct {
	// AuthURL is the auth service base path (login, register, /user/me).
	AuthURL string `mapstructure:"REDGIT_AUTH_URL"`
	// IdeasURL is the ideas service base path.
	IdeasURL string `mapstructure:"REDGIT_IDEAS_URL"`
	// StateDir holds the local credential store; created 0700 on first use.
	StateDir string `mapstructure:"REDGIT_STATE_DIR"`
	// HTTPTimeout bounds every remote call issued by the CLIs.
	HTTPTimeout time.Duration `mapstructure:"REDGIT_HTTP_TIMEOUT"`
	// RatePerSec / RateBurst shape the client-side politeness limit.
	RatePerSec float64 `mapstructure:"REDGIT_RATE_PER_SEC"`
	RateBurst  int     `mapstructure:"REDGIT_RATE_BURST"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment. Missing .env is ignored; env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("REDGIT_AUTH_URL", "http://localhost:8081/api")
	v.SetDefault("REDGIT_IDEAS_URL", "http://localhost:8082/api/ideas")
	v.SetDefault("REDGIT_STATE_DIR", defaultStateDir())
	v.SetDefault("REDGIT_HTTP_TIMEOUT", "10s")
	v.SetDefault("REDGIT_RATE_PER_SEC", 10.0)
	v.SetDefault("REDGIT_RATE_BURST", 20)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.AuthURL == "" {
		return nil, errors.New("config: REDGIT_AUTH_URL must be set")
	}
	if cfg.IdeasURL == "" {
		return nil, errors.New("config: REDGIT_IDEAS_URL must be set")
	}
	if cfg.StateDir == "" {
		return nil, errors.New("config: REDGIT_STATE_DIR must be set")
	}
	if cfg.HTTPTimeout <= 0 {
		return nil, errors.New("config: REDGIT_HTTP_TIMEOUT must be positive")
	}
	if cfg.RatePerSec <= 0 || cfg.RateBurst <= 0 {
		return nil, errors.New("config: rate limit values must be positive")
	}
	return &cfg, nil
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".redgit"
	}
	return filepath.Join(home, ".redgit")
}
