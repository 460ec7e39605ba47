// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-keyauth.
//
// go-keyauth is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package config loads and validates the go-keyauth server configuration.
package config

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the complete server configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	TLS         TLSConfig         `yaml:"tls"`
	Auth        AuthConfig        `yaml:"auth"`
	RateLimit   RateLimitConfig   `yaml:"ratelimit"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Enforcement EnforcementConfig `yaml:"enforcement"`
}

// ServerConfig contains server-level settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level  string `yaml:"level"`  // info, debug
	Format string `yaml:"format"` // text, json
}

// TLSConfig controls TLS settings for the REST listener
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// AuthConfig controls authentication of callers to the hosting surface.
// This is caller authentication for the service API, not the per-key
// hardware authentication the enforcement engine validates.
type AuthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Type    string `yaml:"type"` // noop, apikey, jwt

	// APIKeys maps an API key to the subject it authenticates.
	APIKeys map[string]string `yaml:"api_keys,omitempty"`

	// JWT holds bearer-token settings.
	JWT *JWTConfig `yaml:"jwt,omitempty"`
}

// JWTConfig controls JWT bearer authentication
type JWTConfig struct {
	Secret   string   `yaml:"secret"`
	Issuer   string   `yaml:"issuer"`
	Audience []string `yaml:"audience"`
}

// RateLimitConfig controls per-client request limiting
type RateLimitConfig struct {
	Enabled        bool `yaml:"enabled"`
	RequestsPerMin int  `yaml:"requests_per_min"`
	Burst          int  `yaml:"burst"`
}

// MetricsConfig controls the Prometheus scrape endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// EnforcementConfig controls the policy engine
type EnforcementConfig struct {
	// AccessTimeTableSize caps the number of tracked rate-limited keys.
	AccessTimeTableSize int `yaml:"access_time_table_size"`

	// AccessCountTableSize caps the number of tracked usage-capped keys.
	AccessCountTableSize int `yaml:"access_count_table_size"`

	// TokenHMACKeyFile is the path to the shared auth-token signing key,
	// hex encoded. When empty, every auth-token signature check fails
	// closed and authentication-gated keys are unusable.
	TokenHMACKeyFile string `yaml:"token_hmac_key_file"`
}

// Default returns the configuration defaults applied before a config file is
// merged on top.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8443,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		RateLimit: RateLimitConfig{
			Enabled:        false,
			RequestsPerMin: 600,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Enforcement: EnforcementConfig{
			AccessTimeTableSize:  32,
			AccessCountTableSize: 32,
		},
	}
}

// Load reads a YAML configuration file, merging it over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}
	switch c.Logging.Level {
	case "", "info", "debug":
	default:
		return fmt.Errorf("config: invalid logging level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: invalid logging format %q", c.Logging.Format)
	}
	if c.TLS.Enabled && (c.TLS.CertFile == "" || c.TLS.KeyFile == "") {
		return fmt.Errorf("config: tls enabled but cert_file or key_file missing")
	}
	if c.Auth.Enabled {
		switch c.Auth.Type {
		case "apikey":
			if len(c.Auth.APIKeys) == 0 {
				return fmt.Errorf("config: apikey auth enabled but no api_keys configured")
			}
		case "jwt":
			if c.Auth.JWT == nil || c.Auth.JWT.Secret == "" {
				return fmt.Errorf("config: jwt auth enabled but no secret configured")
			}
		case "", "noop":
		default:
			return fmt.Errorf("config: invalid auth type %q", c.Auth.Type)
		}
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMin <= 0 {
		return fmt.Errorf("config: ratelimit enabled but requests_per_min not positive")
	}
	if c.Enforcement.AccessTimeTableSize < 0 || c.Enforcement.AccessCountTableSize < 0 {
		return fmt.Errorf("config: enforcement table sizes must not be negative")
	}
	return nil
}

// TokenHMACKey loads and decodes the shared auth-token signing key. Returns
// nil with no error when no key file is configured.
func (c *Config) TokenHMACKey() ([]byte, error) {
	if c.Enforcement.TokenHMACKeyFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(c.Enforcement.TokenHMACKeyFile)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read token HMAC key: %w", err)
	}
	key, err := hex.DecodeString(string(bytes.TrimSpace(data)))
	if err != nil {
		return nil, fmt.Errorf("config: token HMAC key is not valid hex: %w", err)
	}
	return key, nil
}
