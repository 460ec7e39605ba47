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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// KeyID is an 8-byte identifier derived from key material. It is used purely
// as a tracking-table key and is never reversed.
type KeyID [8]byte

// String returns the identifier as lowercase hex.
func (k KeyID) String() string {
	return hex.EncodeToString(k[:])
}

// ParseKeyID decodes a 16-character hex string into a KeyID.
func ParseKeyID(s string) (KeyID, error) {
	var keyid KeyID
	raw, err := hex.DecodeString(s)
	if err != nil {
		return keyid, fmt.Errorf("enforcement: invalid key ID %q: %w", s, err)
	}
	if len(raw) != len(keyid) {
		return keyid, fmt.Errorf("enforcement: invalid key ID length %d, want %d", len(raw), len(keyid))
	}
	copy(keyid[:], raw)
	return keyid, nil
}

// Digester computes a 256-bit digest of its input. The enforcer treats it as
// an external collaborator; a failure means the operation cannot be
// authorized, never that enforcement is skipped.
type Digester interface {
	Digest256(data []byte) ([32]byte, error)
}

// SHA256Digester is the default Digester, backed by crypto/sha256.
type SHA256Digester struct{}

// Digest256 returns the SHA-256 digest of data.
func (SHA256Digester) Digest256(data []byte) ([32]byte, error) {
	return sha256.Sum256(data), nil
}

// DeriveKeyID computes the key's tracking identifier: the first 8 bytes of a
// 256-bit digest of the raw key material.
func (e *Enforcer) DeriveKeyID(keyMaterial []byte) (KeyID, error) {
	var keyid KeyID
	digest, err := e.digester.Digest256(keyMaterial)
	if err != nil {
		return keyid, fmt.Errorf("%w: key ID digest failed: %v", ErrUnknown, err)
	}
	copy(keyid[:], digest[:len(keyid)])
	return keyid, nil
}
