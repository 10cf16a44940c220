// Package config loads client configuration from .env and the
// environment via Viper.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config is the DashWise client configuration.
type Config struct {
	// BaseURL is the API base (e.g. http://localhost:5000/api).
	BaseURL string `mapstructure:"DASHWISE_BASE_URL"`
	// DataDir is where the session record is persisted. Empty means
	// <user config dir>/dashwise.
	DataDir string `mapstructure:"DASHWISE_DATA_DIR"`
	// RequestTimeout bounds one API request (e.g. "30s").
	RequestTimeout string `mapstructure:"DASHWISE_REQUEST_TIMEOUT"`
	// RefreshTimeout bounds one token refresh call (e.g. "10s").
	RefreshTimeout string `mapstructure:"DASHWISE_REFRESH_TIMEOUT"`
	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string `mapstructure:"DASHWISE_LOG_LEVEL"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment. Missing .env is ignored; env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("DASHWISE_BASE_URL", "http://localhost:5000/api")
	v.SetDefault("DASHWISE_DATA_DIR", "")
	v.SetDefault("DASHWISE_REQUEST_TIMEOUT", "30s")
	v.SetDefault("DASHWISE_REFRESH_TIMEOUT", "10s")
	v.SetDefault("DASHWISE_LOG_LEVEL", "info")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.BaseURL == "" {
		return nil, errors.New("config: DASHWISE_BASE_URL must be set")
	}
	return &cfg, nil
}

// RequestTimeoutDuration parses RequestTimeout; 30s if unset or invalid.
func (c *Config) RequestTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// RefreshTimeoutDuration parses RefreshTimeout; 10s if unset or invalid.
func (c *Config) RefreshTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.RefreshTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// ResolveDataDir returns the session storage directory, defaulting to the
// user config dir.
func (c *Config) ResolveDataDir() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "dashwise"), nil
}
