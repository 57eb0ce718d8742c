// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port    string
	BaseURL string // public base URL; payment back-urls and webhooks point here

	DiscordToken   string
	DiscordAPIBase string

	RobloxCookie string

	MPAccessToken string
	MPAPIBase     string

	SessionTTL time.Duration
	LedgerPath string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		BaseURL:        getEnv("BASE_URL", ""),
		DiscordToken:   getEnv("DISCORD_TOKEN", ""),
		DiscordAPIBase: getEnv("DISCORD_API_BASE", ""),
		RobloxCookie:   getEnv("ROBLOX_COOKIE", ""),
		MPAccessToken:  getEnv("MP_ACCESS_TOKEN", ""),
		MPAPIBase:      getEnv("MP_API_BASE", ""),
		SessionTTL:     getEnvDuration("SESSION_TTL", 30*time.Minute),
		LedgerPath:     getEnv("LEDGER_PATH", "./data/orders.db"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("BASE_URL cannot be empty")
	}
	if strings.HasSuffix(c.BaseURL, "/") {
		return fmt.Errorf("BASE_URL must not end with a slash")
	}
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN cannot be empty")
	}
	if c.MPAccessToken == "" {
		return fmt.Errorf("MP_ACCESS_TOKEN cannot be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if c.LedgerPath == "" {
		return fmt.Errorf("LEDGER_PATH cannot be empty")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return strings.Contains(c.BaseURL, "localhost") ||
		strings.Contains(c.BaseURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	// Bare numbers are minutes.
	if n, err := strconv.Atoi(value); err == nil && n > 0 {
		return time.Duration(n) * time.Minute
	}
	return fallback
}
