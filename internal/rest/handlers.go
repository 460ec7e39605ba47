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

package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jeremyhahn/go-keyauth/pkg/correlation"
	"github.com/jeremyhahn/go-keyauth/pkg/enforcement"
	"github.com/jeremyhahn/go-keyauth/pkg/metrics"
)

// maxRequestBody bounds decision request bodies. Attribute sets are small;
// anything larger is abuse.
const maxRequestBody = 1 << 20

// handleAuthorize is the decision entry point. The decision itself always
// returns 200 with a verdict envelope; HTTP error codes are reserved for
// malformed requests and transport failures.
func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	var req AuthorizeRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", ErrInvalidRequest, err), http.StatusBadRequest)
		return
	}

	purpose, err := enforcement.ParsePurpose(req.Purpose)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", ErrInvalidRequest, err), http.StatusBadRequest)
		return
	}
	keyid, err := enforcement.ParseKeyID(req.KeyID)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", ErrInvalidRequest, err), http.StatusBadRequest)
		return
	}
	authSet, err := enforcement.DocsToSet(req.KeyAuthorizations)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", ErrInvalidRequest, err), http.StatusBadRequest)
		return
	}
	operationParams, err := enforcement.DocsToSet(req.OperationParams)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", ErrInvalidRequest, err), http.StatusBadRequest)
		return
	}

	start := time.Now()
	decisionErr := s.enforcer.AuthorizeOperation(purpose, keyid, authSet,
		operationParams, req.OperationHandle, req.BeginOperation)
	duration := time.Since(start)

	reason := ""
	if decisionErr != nil {
		reason = reasonCode(decisionErr)
	}
	metrics.RecordDecision(purpose.String(), decisionErr == nil, reason, duration)
	stats := s.enforcer.GetStats()
	metrics.RecordTableStats(stats.AccessTimeEntries, stats.AccessTimeCapacity,
		stats.AccessCountEntries, stats.AccessCountCapacity)

	if decisionErr != nil {
		s.logger.Debug("operation denied",
			"correlation_id", correlation.GetCorrelationID(r.Context()),
			"purpose", purpose.String(),
			"keyid", keyid.String(),
			"reason", reason)
		s.writeJSON(w, http.StatusOK, AuthorizeResponse{
			Allowed:   false,
			Reason:    reason,
			Message:   decisionErr.Error(),
			Retryable: isRetryable(decisionErr),
		})
		return
	}

	s.writeJSON(w, http.StatusOK, AuthorizeResponse{Allowed: true})
}

// handleKeyID derives a tracking identifier from raw key material.
func (s *Server) handleKeyID(w http.ResponseWriter, r *http.Request) {
	var req KeyIDRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", ErrInvalidRequest, err), http.StatusBadRequest)
		return
	}
	if len(req.KeyMaterial) == 0 {
		s.writeError(w, fmt.Errorf("%w: key_material is required", ErrInvalidRequest), http.StatusBadRequest)
		return
	}

	keyid, err := s.enforcer.DeriveKeyID(req.KeyMaterial)
	if err != nil {
		if errors.Is(err, enforcement.ErrUnknown) {
			s.writeError(w, err, http.StatusInternalServerError)
			return
		}
		s.writeError(w, err, http.StatusBadRequest)
		return
	}

	s.writeJSON(w, http.StatusOK, KeyIDResponse{KeyID: keyid.String()})
}

// handleStats reports tracking-table occupancy.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.enforcer.GetStats())
}

// handleHealth reports service liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: s.version,
	})
}
