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

import "github.com/jeremyhahn/go-keyauth/pkg/enforcement"

// AuthorizeRequest is the decision entry point's request body.
type AuthorizeRequest struct {
	// Purpose is the requested operation: encrypt, decrypt, sign, verify.
	Purpose string `json:"purpose"`

	// KeyID is the key's 8-byte tracking identifier, hex encoded.
	KeyID string `json:"key_id"`

	// KeyAuthorizations are the key's immutable authorization attributes.
	KeyAuthorizations []enforcement.AttributeDoc `json:"key_authorizations"`

	// OperationParams are the caller-supplied request parameters.
	OperationParams []enforcement.AttributeDoc `json:"operation_params,omitempty"`

	// OperationHandle is the operation's handle; zero during begin before
	// one is assigned.
	OperationHandle uint64 `json:"operation_handle,omitempty"`

	// BeginOperation marks the operation's begin step.
	BeginOperation bool `json:"begin_operation,omitempty"`
}

// AuthorizeResponse is the decision envelope. Allowed is authoritative;
// denied decisions carry the closed-set reason code, and Retryable
// distinguishes a full tracking table from a security denial.
type AuthorizeResponse struct {
	Allowed   bool   `json:"allowed"`
	Reason    string `json:"reason,omitempty"`
	Message   string `json:"message,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// KeyIDRequest asks for a tracking identifier derived from key material.
type KeyIDRequest struct {
	// KeyMaterial is the raw key material, base64 encoded.
	KeyMaterial []byte `json:"key_material"`
}

// KeyIDResponse carries the derived identifier, hex encoded.
type KeyIDResponse struct {
	KeyID string `json:"key_id"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is the envelope for transport-level failures (malformed
// request, unauthorized caller), as opposed to authorization denials.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}
