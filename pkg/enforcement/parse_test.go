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

func TestParsePurpose(t *testing.T) {
	for name, want := range map[string]Purpose{
		"ENCRYPT": PurposeEncrypt,
		"decrypt": PurposeDecrypt,
		"Sign":    PurposeSign,
		"VERIFY":  PurposeVerify,
	} {
		purpose, err := ParsePurpose(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, purpose)
	}

	_, err := ParsePurpose("wrap")
	assert.Error(t, err)
}

func TestParseTag_RoundTrip(t *testing.T) {
	// Every name the map knows must parse back to a tag whose String matches.
	for name, tag := range tagNames {
		parsed, err := ParseTag(name)
		require.NoError(t, err, name)
		assert.Equal(t, tag, parsed)
		assert.Equal(t, name, tag.String())
	}

	parsed, err := ParseTag("max_uses_per_boot")
	require.NoError(t, err)
	assert.Equal(t, TagMaxUsesPerBoot, parsed)

	_, err = ParseTag("NO_SUCH_TAG")
	assert.Error(t, err)
}

func TestDocsToSet(t *testing.T) {
	docs := []AttributeDoc{
		{Tag: "PURPOSE", Uint: uint32(PurposeSign)},
		{Tag: "USER_SECURE_ID", Long: 42},
		{Tag: "ACTIVE_DATETIME", Date: 1_000_000},
		{Tag: "NO_AUTH_REQUIRED", Bool: true},
		{Tag: "NONCE", Bytes: []byte{1, 2, 3}},
	}

	set, err := DocsToSet(docs)
	require.NoError(t, err)
	require.Len(t, set, 5)

	assert.Equal(t, UintAttr(TagPurpose, uint32(PurposeSign)), set[0])
	assert.Equal(t, LongAttr(TagUserSecureID, 42), set[1])
	assert.Equal(t, DateAttr(TagActiveDateTime, 1_000_000), set[2])
	assert.Equal(t, BoolAttr(TagNoAuthRequired, true), set[3])
	assert.Equal(t, BytesAttr(TagNonce, []byte{1, 2, 3}), set[4])

	_, err = DocsToSet([]AttributeDoc{{Tag: "BOGUS"}})
	assert.Error(t, err)
}
