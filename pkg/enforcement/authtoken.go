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

import "encoding/binary"

const (
	// HwAuthTokenVersion is the only token protocol version this enforcer accepts.
	HwAuthTokenVersion = 0

	// HwAuthTokenSize is the exact wire size of a hardware auth token.
	HwAuthTokenSize = 69

	// hwAuthTokenSignedSize is the portion of the token covered by the HMAC.
	hwAuthTokenSignedSize = HwAuthTokenSize - 32
)

// HwAuthToken is a signed assertion from the secure authentication hardware
// that a qualifying authentication event occurred. It is only ever consumed
// here, never produced: the enforcer validates it field by field against the
// key's authentication requirements.
//
// Wire layout, 69 bytes total:
//
//	version           1 byte
//	challenge         8 bytes, little-endian
//	user_id           8 bytes, little-endian
//	authenticator_id  8 bytes, little-endian
//	authenticator_type 4 bytes, big-endian
//	timestamp         8 bytes, big-endian, milliseconds since boot
//	hmac              32 bytes over the preceding 37
type HwAuthToken struct {
	Version           uint8
	Challenge         uint64
	UserID            uint64
	AuthenticatorID   uint64
	AuthenticatorType uint32
	Timestamp         uint64
	HMAC              [32]byte
}

// ParseHwAuthToken decodes a raw token blob. The size and version checks are
// defensive: a mismatch signals malformed input from the authentication
// hardware path, and malformed input is never tolerated.
func ParseHwAuthToken(raw []byte) (*HwAuthToken, error) {
	if len(raw) != HwAuthTokenSize {
		return nil, ErrInvalidTokenSize
	}

	token := &HwAuthToken{
		Version:           raw[0],
		Challenge:         binary.LittleEndian.Uint64(raw[1:9]),
		UserID:            binary.LittleEndian.Uint64(raw[9:17]),
		AuthenticatorID:   binary.LittleEndian.Uint64(raw[17:25]),
		AuthenticatorType: binary.BigEndian.Uint32(raw[25:29]),
		Timestamp:         binary.BigEndian.Uint64(raw[29:37]),
	}
	copy(token.HMAC[:], raw[37:])

	if token.Version != HwAuthTokenVersion {
		return nil, ErrInvalidTokenVersion
	}
	return token, nil
}

// Serialize encodes the token into its wire layout.
func (t *HwAuthToken) Serialize() []byte {
	raw := make([]byte, HwAuthTokenSize)
	raw[0] = t.Version
	binary.LittleEndian.PutUint64(raw[1:9], t.Challenge)
	binary.LittleEndian.PutUint64(raw[9:17], t.UserID)
	binary.LittleEndian.PutUint64(raw[17:25], t.AuthenticatorID)
	binary.BigEndian.PutUint32(raw[25:29], t.AuthenticatorType)
	binary.BigEndian.PutUint64(raw[29:37], t.Timestamp)
	copy(raw[37:], t.HMAC[:])
	return raw
}

// timedOut reports whether the token's authentication event is older than
// timeoutSeconds relative to the current boot clock.
func (t *HwAuthToken) timedOut(timeoutSeconds, nowSeconds uint32) bool {
	return t.Timestamp+uint64(timeoutSeconds)*1000 < uint64(nowSeconds)*1000
}

// TokenVerifier validates a token's embedded signature. The signing key is
// shared with the authentication hardware and is not owned by this component.
type TokenVerifier interface {
	Verify(tokenBytes []byte) bool
}
