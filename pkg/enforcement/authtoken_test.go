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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHwAuthToken_RoundTrip(t *testing.T) {
	token := &HwAuthToken{
		Version:           HwAuthTokenVersion,
		Challenge:         0xDEADBEEF,
		UserID:            42,
		AuthenticatorID:   7,
		AuthenticatorType: AuthenticatorFingerprint,
		Timestamp:         123456,
	}
	for i := range token.HMAC {
		token.HMAC[i] = byte(i)
	}

	raw := token.Serialize()
	require.Len(t, raw, HwAuthTokenSize)

	parsed, err := ParseHwAuthToken(raw)
	require.NoError(t, err)
	assert.Equal(t, token, parsed)
}

func TestParseHwAuthToken_WrongSize(t *testing.T) {
	_, err := ParseHwAuthToken(make([]byte, HwAuthTokenSize-1))
	assert.ErrorIs(t, err, ErrInvalidTokenSize)

	_, err = ParseHwAuthToken(make([]byte, HwAuthTokenSize+1))
	assert.ErrorIs(t, err, ErrInvalidTokenSize)
}

func TestParseHwAuthToken_WrongVersion(t *testing.T) {
	raw := make([]byte, HwAuthTokenSize)
	raw[0] = HwAuthTokenVersion + 1

	_, err := ParseHwAuthToken(raw)
	assert.ErrorIs(t, err, ErrInvalidTokenVersion)
}

func TestHwAuthToken_TimedOut(t *testing.T) {
	token := &HwAuthToken{Timestamp: 100_000} // 100s after boot

	assert.False(t, token.timedOut(30, 120), "20s old, 30s window")
	assert.False(t, token.timedOut(30, 130), "exactly at the window edge")
	assert.True(t, token.timedOut(30, 131), "31s old, 30s window")
}

func TestHMACVerifier(t *testing.T) {
	verifier := NewHMACVerifier([]byte("shared-secret"))
	token := &HwAuthToken{
		Version:   HwAuthTokenVersion,
		Challenge: 99,
		UserID:    1,
	}

	raw := verifier.Sign(token)
	require.Len(t, raw, HwAuthTokenSize)
	assert.True(t, verifier.Verify(raw))

	// Any tampering invalidates the signature.
	tampered := make([]byte, len(raw))
	copy(tampered, raw)
	tampered[1] ^= 0x01
	assert.False(t, verifier.Verify(tampered))

	// A different key does not verify.
	other := NewHMACVerifier([]byte("other-secret"))
	assert.False(t, other.Verify(raw))

	assert.False(t, verifier.Verify(raw[:10]), "truncated token")
}
