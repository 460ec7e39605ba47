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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingDigester struct{}

func (failingDigester) Digest256(data []byte) ([32]byte, error) {
	return [32]byte{}, errors.New("digest hardware unavailable")
}

func TestDeriveKeyID(t *testing.T) {
	e := New(nil)
	material := []byte("raw key material")

	keyid, err := e.DeriveKeyID(material)
	require.NoError(t, err)

	digest := sha256.Sum256(material)
	assert.Equal(t, digest[:8], keyid[:], "keyid is the digest's first 8 bytes")

	// Deterministic across calls.
	again, err := e.DeriveKeyID(material)
	require.NoError(t, err)
	assert.Equal(t, keyid, again)

	// Distinct material yields a distinct identifier.
	other, err := e.DeriveKeyID([]byte("other material"))
	require.NoError(t, err)
	assert.NotEqual(t, keyid, other)
}

func TestDeriveKeyID_DigestFailure(t *testing.T) {
	e := New(&Config{Digester: failingDigester{}})

	_, err := e.DeriveKeyID([]byte("material"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknown, "digest failure must surface as a failure, not skipped enforcement")
}

func TestParseKeyID(t *testing.T) {
	keyid, err := ParseKeyID("0102030405060708")
	require.NoError(t, err)
	assert.Equal(t, KeyID{1, 2, 3, 4, 5, 6, 7, 8}, keyid)
	assert.Equal(t, "0102030405060708", keyid.String())

	_, err = ParseKeyID("zzzz")
	assert.Error(t, err)

	_, err = ParseKeyID("0102")
	assert.Error(t, err)
}
