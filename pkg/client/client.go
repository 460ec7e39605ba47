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

// Package client provides a Go client for the go-keyauth REST API.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jeremyhahn/go-keyauth/pkg/enforcement"
)

var (
	// ErrConnectionFailed indicates the server could not be reached.
	ErrConnectionFailed = errors.New("client: connection failed")

	// ErrUnauthorized indicates the server rejected the caller's credentials.
	ErrUnauthorized = errors.New("client: unauthorized")

	// ErrServerError indicates the server reported a failure.
	ErrServerError = errors.New("client: server error")
)

// Config holds client connection settings.
type Config struct {
	// Address is the server address, with or without a scheme.
	Address string

	// TLSEnabled selects https when Address carries no scheme.
	TLSEnabled bool

	// TLSCAFile is an optional CA bundle for verifying the server.
	TLSCAFile string

	// TLSInsecureSkipVerify disables server certificate verification.
	// Never use outside of tests.
	TLSInsecureSkipVerify bool

	// APIKey authenticates the caller via the X-API-Key header.
	APIKey string

	// BearerToken authenticates the caller via an Authorization header.
	BearerToken string

	// Timeout bounds each request. Defaults to 15 seconds.
	Timeout time.Duration
}

// Client talks to a go-keyauth server over REST.
type Client struct {
	config     *Config
	httpClient *http.Client
	baseURL    string
}

// AuthorizeRequest asks the server for an authorization decision.
type AuthorizeRequest struct {
	Purpose           string                     `json:"purpose"`
	KeyID             string                     `json:"key_id"`
	KeyAuthorizations []enforcement.AttributeDoc `json:"key_authorizations"`
	OperationParams   []enforcement.AttributeDoc `json:"operation_params,omitempty"`
	OperationHandle   uint64                     `json:"operation_handle,omitempty"`
	BeginOperation    bool                       `json:"begin_operation,omitempty"`
}

// AuthorizeResponse is the server's decision envelope.
type AuthorizeResponse struct {
	Allowed   bool   `json:"allowed"`
	Reason    string `json:"reason,omitempty"`
	Message   string `json:"message,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// KeyIDResponse carries a derived key identifier, hex encoded.
type KeyIDResponse struct {
	KeyID string `json:"key_id"`
}

// HealthResponse reports server liveness.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// New creates a client from config.
func New(cfg *Config) (*Client, error) {
	if cfg == nil || cfg.Address == "" {
		return nil, fmt.Errorf("client: address is required")
	}

	baseURL := cfg.Address
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		if cfg.TLSEnabled {
			baseURL = "https://" + baseURL
		} else {
			baseURL = "http://" + baseURL
		}
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	var tlsConfig *tls.Config
	if strings.HasPrefix(baseURL, "https://") {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: cfg.TLSInsecureSkipVerify,
			MinVersion:         tls.VersionTLS12,
		}
		if cfg.TLSCAFile != "" {
			caCert, err := os.ReadFile(cfg.TLSCAFile)
			if err != nil {
				return nil, fmt.Errorf("client: failed to read CA certificate: %w", err)
			}
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(caCert) {
				return nil, fmt.Errorf("client: failed to parse CA certificate")
			}
			tlsConfig.RootCAs = pool
		}
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{TLSClientConfig: tlsConfig},
		},
		baseURL: baseURL,
	}, nil
}

// Authorize requests an authorization decision.
func (c *Client) Authorize(ctx context.Context, req *AuthorizeRequest) (*AuthorizeResponse, error) {
	var resp AuthorizeResponse
	if err := c.post(ctx, "/api/v1/authorize", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeriveKeyID asks the server to derive a tracking identifier from raw key
// material.
func (c *Client) DeriveKeyID(ctx context.Context, keyMaterial []byte) (string, error) {
	body := struct {
		KeyMaterial []byte `json:"key_material"`
	}{KeyMaterial: keyMaterial}

	var resp KeyIDResponse
	if err := c.post(ctx, "/api/v1/keyid", body, &resp); err != nil {
		return "", err
	}
	return resp.KeyID, nil
}

// Stats reports the server's tracking-table occupancy.
func (c *Client) Stats(ctx context.Context) (*enforcement.Stats, error) {
	var stats enforcement.Stats
	if err := c.get(ctx, "/api/v1/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Health checks server liveness.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var health HealthResponse
	if err := c.get(ctx, "/api/v1/health", &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("client: failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.config.APIKey != "" {
		req.Header.Set("X-API-Key", c.config.APIKey)
	}
	if c.config.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.BearerToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %s: %s", ErrServerError, resp.Status, strings.TrimSpace(string(body)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: failed to decode response: %w", err)
	}
	return nil
}
