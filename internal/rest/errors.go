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
	"net/http"

	"github.com/jeremyhahn/go-keyauth/pkg/enforcement"
)

// Common errors
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnauthorized   = errors.New("unauthorized")
)

// reasonCode maps each enforcement sentinel to its stable wire code.
func reasonCode(err error) string {
	switch {
	case errors.Is(err, enforcement.ErrIncompatiblePurpose):
		return "incompatible_purpose"
	case errors.Is(err, enforcement.ErrUnsupportedPurpose):
		return "unsupported_purpose"
	case errors.Is(err, enforcement.ErrKeyNotYetValid):
		return "key_not_yet_valid"
	case errors.Is(err, enforcement.ErrKeyExpired):
		return "key_expired"
	case errors.Is(err, enforcement.ErrKeyRateLimitExceeded):
		return "key_rate_limit_exceeded"
	case errors.Is(err, enforcement.ErrKeyMaxOpsExceeded):
		return "key_max_ops_exceeded"
	case errors.Is(err, enforcement.ErrTooManyOperations):
		return "too_many_operations"
	case errors.Is(err, enforcement.ErrInvalidKeyBlob):
		return "invalid_key_blob"
	case errors.Is(err, enforcement.ErrUserNotAuthenticated):
		return "user_not_authenticated"
	case errors.Is(err, enforcement.ErrCallerNonceProhibited):
		return "caller_nonce_prohibited"
	default:
		return "unknown_error"
	}
}

// isRetryable reports whether the denial is a resource condition that may
// clear on its own, rather than a denial of the key or caller.
func isRetryable(err error) bool {
	return errors.Is(err, enforcement.ErrTooManyOperations)
}

// writeError writes a transport-level error response.
func (s *Server) writeError(w http.ResponseWriter, err error, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := ErrorResponse{
		Error: err.Error(),
		Code:  statusCode,
	}
	if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
		s.logger.Errorf("failed to encode error response: %v", encErr)
	}
}

// writeJSON writes a successful JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Errorf("failed to encode response: %v", err)
	}
}
