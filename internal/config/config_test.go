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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8443, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 32, cfg.Enforcement.AccessTimeTableSize)
	assert.Equal(t, 32, cfg.Enforcement.AccessCountTableSize)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 127.0.0.1
  port: 9000
logging:
  level: debug
  format: json
auth:
  enabled: true
  type: apikey
  api_keys:
    secret-key-1: ops
enforcement:
  access_time_table_size: 16
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "ops", cfg.Auth.APIKeys["secret-key-1"])
	assert.Equal(t, 16, cfg.Enforcement.AccessTimeTableSize)

	// Unset sections keep their defaults.
	assert.Equal(t, 32, cfg.Enforcement.AccessCountTableSize)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a mapping")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, false},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, false},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, false},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, false},
		{"tls without certs", func(c *Config) { c.TLS.Enabled = true }, false},
		{"tls with certs", func(c *Config) {
			c.TLS.Enabled = true
			c.TLS.CertFile = "server.crt"
			c.TLS.KeyFile = "server.key"
		}, true},
		{"apikey without keys", func(c *Config) {
			c.Auth.Enabled = true
			c.Auth.Type = "apikey"
		}, false},
		{"jwt without secret", func(c *Config) {
			c.Auth.Enabled = true
			c.Auth.Type = "jwt"
		}, false},
		{"jwt with secret", func(c *Config) {
			c.Auth.Enabled = true
			c.Auth.Type = "jwt"
			c.Auth.JWT = &JWTConfig{Secret: "s3cr3t"}
		}, true},
		{"unknown auth type", func(c *Config) {
			c.Auth.Enabled = true
			c.Auth.Type = "mtls"
		}, false},
		{"ratelimit without rate", func(c *Config) {
			c.RateLimit.Enabled = true
			c.RateLimit.RequestsPerMin = 0
		}, false},
		{"negative table size", func(c *Config) {
			c.Enforcement.AccessTimeTableSize = -1
		}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestTokenHMACKey(t *testing.T) {
	cfg := Default()

	key, err := cfg.TokenHMACKey()
	require.NoError(t, err)
	assert.Nil(t, key, "no key file configured")

	path := filepath.Join(t.TempDir(), "token.key")
	require.NoError(t, os.WriteFile(path, []byte("deadbeefcafe\n"), 0600))
	cfg.Enforcement.TokenHMACKeyFile = path

	key, err = cfg.TokenHMACKey()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef, 0xca, 0xfe}, key)

	require.NoError(t, os.WriteFile(path, []byte("not hex"), 0600))
	_, err = cfg.TokenHMACKey()
	assert.Error(t, err)

	cfg.Enforcement.TokenHMACKeyFile = filepath.Join(t.TempDir(), "missing.key")
	_, err = cfg.TokenHMACKey()
	assert.Error(t, err)
}
