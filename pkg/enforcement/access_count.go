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
	"math"
	"sync"
)

// accessCount records how many authorized operations a usage-capped key has
// performed since the table was created (effectively since boot).
type accessCount struct {
	keyid KeyID
	count uint32
}

// AccessCountMap tracks per-boot usage counts for keys carrying a
// TagMaxUsesPerBoot constraint. At most one entry per key, fixed capacity,
// no eviction: entries live until process restart. When full, new keys are
// refused rather than evicting live counters, which would reset another
// key's usage cap.
type AccessCountMap struct {
	mu      sync.Mutex
	entries []accessCount
	maxSize int
}

// NewAccessCountMap creates a table with the given maximum entry count.
func NewAccessCountMap(maxSize int) *AccessCountMap {
	return &AccessCountMap{
		entries: make([]accessCount, 0, maxSize),
		maxSize: maxSize,
	}
}

// AccessCount returns the recorded usage count for keyid. A false return
// means no uses are recorded, which callers treat as the usage cap being
// trivially satisfied.
func (m *AccessCountMap) AccessCount(keyid KeyID) (uint32, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.entries {
		if m.entries[i].keyid == keyid {
			return m.entries[i].count, true
		}
	}
	return 0, false
}

// IncrementAccessCount records one authorized use of keyid. The counter
// saturates at its maximum value rather than wrapping. Returns false when the
// key is untracked and the table is full; callers must surface that as a
// retry-after-restart condition rather than allowing unmetered use.
func (m *AccessCountMap) IncrementAccessCount(keyid KeyID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.entries {
		if m.entries[i].keyid == keyid {
			if m.entries[i].count < math.MaxUint32 {
				m.entries[i].count++
			}
			return true
		}
	}

	if len(m.entries) >= m.maxSize {
		return false
	}
	m.entries = append(m.entries, accessCount{keyid: keyid, count: 1})
	return true
}

// Len returns the current entry count.
func (m *AccessCountMap) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Cap returns the configured maximum entry count.
func (m *AccessCountMap) Cap() int {
	return m.maxSize
}
