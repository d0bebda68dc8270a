package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the complete service configuration. Values can be loaded from
// a TOML file; credentials normally arrive via environment overrides in
// main.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Provider ProviderConfig `toml:"provider"`
	Scan     ScanConfig     `toml:"scan"`
	Secrets  SecretsConfig  `toml:"secrets"`
}

// ServerConfig contains the HTTP listener settings
type ServerConfig struct {
	Port           string `toml:"port"`
	RateLimit      int64  `toml:"rate_limit"`
	RateWindowSecs int    `toml:"rate_window_seconds"`
}

// ProviderConfig contains the identity and graph endpoints of the cloud
// directory provider
type ProviderConfig struct {
	TokenURL     string `toml:"token_url"`
	GraphBaseURL string `toml:"graph_base_url"`
	Scope        string `toml:"scope"`
}

// ScanConfig contains scan scheduling and retention settings
type ScanConfig struct {
	IntervalMinutes int `toml:"interval_minutes"`
	RetentionDays   int `toml:"retention_days"`
	Concurrency     int `toml:"concurrency"`
}

// SecretsConfig contains the object-store location of tenant client secrets
type SecretsConfig struct {
	Bucket string `toml:"bucket"`
	UseSSL bool   `toml:"use_ssl"`
}

// LoadConfig loads configuration from a TOML file
func LoadConfig(filename string) (*Config, error) {
	config := defaults()
	_, err := toml.DecodeFile(filename, config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	return config, nil
}

// Defaults returns the configuration used when no file is given.
func Defaults() *Config {
	return defaults()
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			RateLimit:      300,
			RateWindowSecs: 60,
		},
		Scan: ScanConfig{
			IntervalMinutes: 60,
			RetentionDays:   90,
			Concurrency:     5,
		},
		Secrets: SecretsConfig{
			Bucket: "tenant-secrets",
		},
	}
}

// ScanInterval returns the scheduled scan interval as a duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Scan.IntervalMinutes) * time.Minute
}

// ScanRetention returns the scan-history retention window as a duration.
func (c *Config) ScanRetention() time.Duration {
	return time.Duration(c.Scan.RetentionDays) * 24 * time.Hour
}

// RateWindow returns the rate-limit window as a duration.
func (c *Config) RateWindow() time.Duration {
	return time.Duration(c.Server.RateWindowSecs) * time.Second
}
