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

package enforcement

import (
	"crypto/hmac"
	"crypto/sha256"
)

// HMACVerifier validates auth token signatures with HMAC-SHA256 over the
// token's signed portion, using a key shared with the authentication
// hardware. It is the default TokenVerifier for deployments where the shared
// key is provisioned to this process.
type HMACVerifier struct {
	key []byte
}

// NewHMACVerifier creates a verifier with the shared signing key.
func NewHMACVerifier(key []byte) *HMACVerifier {
	return &HMACVerifier{key: key}
}

// Verify recomputes the token HMAC and compares it in constant time.
func (v *HMACVerifier) Verify(tokenBytes []byte) bool {
	if len(tokenBytes) != HwAuthTokenSize {
		return false
	}
	mac := hmac.New(sha256.New, v.key)
	mac.Write(tokenBytes[:hwAuthTokenSignedSize])
	return hmac.Equal(mac.Sum(nil), tokenBytes[hwAuthTokenSignedSize:])
}

// Sign fills in the token's HMAC field and returns the serialized token.
// Production tokens are minted by the authentication hardware; this exists
// for tests and tooling that need well-formed tokens.
func (v *HMACVerifier) Sign(token *HwAuthToken) []byte {
	raw := token.Serialize()
	mac := hmac.New(sha256.New, v.key)
	mac.Write(raw[:hwAuthTokenSignedSize])
	copy(raw[hwAuthTokenSignedSize:], mac.Sum(nil))
	copy(token.HMAC[:], raw[hwAuthTokenSignedSize:])
	return raw
}
