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

package client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http/httptest"
	"testing"

	"github.com/jeremyhahn/go-keyauth/internal/config"
	"github.com/jeremyhahn/go-keyauth/internal/rest"
	"github.com/jeremyhahn/go-keyauth/pkg/enforcement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T, mutate func(*config.Config)) *httptest.Server {
	t.Helper()

	cfg := config.Default()
	cfg.Metrics.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}

	s, err := rest.NewServer(&rest.Config{
		Config:   cfg,
		Enforcer: enforcement.New(nil),
		Version:  "test",
	})
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func newTestClient(t *testing.T, ts *httptest.Server, mutate func(*Config)) *Client {
	t.Helper()

	cfg := &Config{Address: ts.URL}
	if mutate != nil {
		mutate(cfg)
	}
	c, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClient_Health(t *testing.T) {
	ts := startTestServer(t, nil)
	c := newTestClient(t, ts, nil)

	health, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "test", health.Version)
}

func TestClient_Authorize(t *testing.T) {
	ts := startTestServer(t, nil)
	c := newTestClient(t, ts, nil)

	resp, err := c.Authorize(context.Background(), &AuthorizeRequest{
		Purpose: "sign",
		KeyID:   "0102030405060708",
		KeyAuthorizations: []enforcement.AttributeDoc{
			{Tag: "PURPOSE", Uint: uint32(enforcement.PurposeSign)},
		},
		BeginOperation: true,
	})
	require.NoError(t, err)
	assert.True(t, resp.Allowed)

	resp, err = c.Authorize(context.Background(), &AuthorizeRequest{
		Purpose: "decrypt",
		KeyID:   "0102030405060708",
		KeyAuthorizations: []enforcement.AttributeDoc{
			{Tag: "PURPOSE", Uint: uint32(enforcement.PurposeSign)},
		},
		BeginOperation: true,
	})
	require.NoError(t, err)
	assert.False(t, resp.Allowed)
	assert.Equal(t, "incompatible_purpose", resp.Reason)
}

func TestClient_Authorize_BadRequest(t *testing.T) {
	ts := startTestServer(t, nil)
	c := newTestClient(t, ts, nil)

	_, err := c.Authorize(context.Background(), &AuthorizeRequest{
		Purpose: "wrap",
		KeyID:   "0102030405060708",
	})
	assert.ErrorIs(t, err, ErrServerError)
}

func TestClient_DeriveKeyID(t *testing.T) {
	ts := startTestServer(t, nil)
	c := newTestClient(t, ts, nil)

	material := []byte("raw key material")
	keyid, err := c.DeriveKeyID(context.Background(), material)
	require.NoError(t, err)

	digest := sha256.Sum256(material)
	assert.Equal(t, hex.EncodeToString(digest[:8]), keyid)
}

func TestClient_Stats(t *testing.T) {
	ts := startTestServer(t, nil)
	c := newTestClient(t, ts, nil)

	stats, err := c.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, enforcement.DefaultAccessTimeTableSize, stats.AccessTimeCapacity)
}

func TestClient_APIKey(t *testing.T) {
	ts := startTestServer(t, func(cfg *config.Config) {
		cfg.Auth.Enabled = true
		cfg.Auth.Type = "apikey"
		cfg.Auth.APIKeys = map[string]string{"valid-key": "ops"}
	})

	unauthenticated := newTestClient(t, ts, nil)
	_, err := unauthenticated.Stats(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)

	authenticated := newTestClient(t, ts, func(cfg *Config) {
		cfg.APIKey = "valid-key"
	})
	_, err = authenticated.Stats(context.Background())
	assert.NoError(t, err)
}

func TestNew_RequiresAddress(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(&Config{})
	assert.Error(t, err)
}
