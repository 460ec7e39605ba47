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

func testKeyID(b byte) KeyID {
	var keyid KeyID
	for i := range keyid {
		keyid[i] = b
	}
	return keyid
}

func TestAccessTimeMap_LastAccessTime_Absent(t *testing.T) {
	m := NewAccessTimeMap(4)

	_, ok := m.LastAccessTime(testKeyID(1))
	assert.False(t, ok)
}

func TestAccessTimeMap_InsertAndLookup(t *testing.T) {
	m := NewAccessTimeMap(4)

	require.True(t, m.UpdateAccessTime(testKeyID(1), 100, 10))

	accessTime, ok := m.LastAccessTime(testKeyID(1))
	require.True(t, ok)
	assert.Equal(t, uint32(100), accessTime)
	assert.Equal(t, 1, m.Len())
}

func TestAccessTimeMap_UpdateOverwrites(t *testing.T) {
	m := NewAccessTimeMap(4)

	require.True(t, m.UpdateAccessTime(testKeyID(1), 100, 10))
	require.True(t, m.UpdateAccessTime(testKeyID(1), 105, 20))

	accessTime, ok := m.LastAccessTime(testKeyID(1))
	require.True(t, ok)
	assert.Equal(t, uint32(105), accessTime)
	assert.Equal(t, 1, m.Len(), "at most one entry per keyid")
}

func TestAccessTimeMap_RejectsNewKeyWhenFull(t *testing.T) {
	m := NewAccessTimeMap(2)

	require.True(t, m.UpdateAccessTime(testKeyID(1), 100, 1000))
	require.True(t, m.UpdateAccessTime(testKeyID(2), 100, 1000))

	// New key refused, existing entries untouched.
	assert.False(t, m.UpdateAccessTime(testKeyID(3), 101, 1000))
	assert.Equal(t, 2, m.Len())

	t1, ok := m.LastAccessTime(testKeyID(1))
	require.True(t, ok)
	assert.Equal(t, uint32(100), t1)

	// Tracked keys still update while the table is full.
	require.True(t, m.UpdateAccessTime(testKeyID(2), 102, 1000))
	t2, ok := m.LastAccessTime(testKeyID(2))
	require.True(t, ok)
	assert.Equal(t, uint32(102), t2)
}

func TestAccessTimeMap_ExpiryFreesCapacity(t *testing.T) {
	m := NewAccessTimeMap(2)

	require.True(t, m.UpdateAccessTime(testKeyID(1), 100, 10))
	require.True(t, m.UpdateAccessTime(testKeyID(2), 100, 1000))

	// keyid 1's interval elapses; an update for any key reclaims it.
	require.True(t, m.UpdateAccessTime(testKeyID(3), 110, 10))
	assert.Equal(t, 2, m.Len())

	_, ok := m.LastAccessTime(testKeyID(1))
	assert.False(t, ok, "elapsed entry should have been evicted")
	_, ok = m.LastAccessTime(testKeyID(2))
	assert.True(t, ok, "live entry must survive the scan")
}

func TestAccessTimeMap_ExpiryBoundary(t *testing.T) {
	m := NewAccessTimeMap(1)

	require.True(t, m.UpdateAccessTime(testKeyID(1), 100, 10))

	// Elapsed == timeout expires the entry.
	require.True(t, m.UpdateAccessTime(testKeyID(2), 110, 10))

	_, ok := m.LastAccessTime(testKeyID(1))
	assert.False(t, ok)
}
