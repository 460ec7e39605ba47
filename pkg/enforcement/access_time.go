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

import "sync"

// accessTime records the most recent authorized use of a rate-limited key and
// the minimum interval in force for that key at that time.
type accessTime struct {
	keyid      KeyID
	accessTime uint32
	timeout    uint32
}

// AccessTimeMap tracks last-access times for keys carrying a
// TagMinSecondsBetweenOps constraint. It holds at most one entry per key and
// has a fixed capacity: when full it refuses new entries rather than evicting
// live ones, so an attacker cannot flush another key's rate-limit state by
// churning keys of their own. Entries whose interval has fully elapsed are
// reclaimed opportunistically during update scans.
type AccessTimeMap struct {
	mu      sync.Mutex
	entries []accessTime
	maxSize int
}

// NewAccessTimeMap creates a table with the given maximum entry count.
func NewAccessTimeMap(maxSize int) *AccessTimeMap {
	return &AccessTimeMap{
		entries: make([]accessTime, 0, maxSize),
		maxSize: maxSize,
	}
}

// LastAccessTime returns the recorded last-access time for keyid. A false
// return means no access is recorded, which callers treat as the rate-limit
// constraint being trivially satisfied.
func (m *AccessTimeMap) LastAccessTime(keyid KeyID) (uint32, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.entries {
		if m.entries[i].keyid == keyid {
			return m.entries[i].accessTime, true
		}
	}
	return 0, false
}

// UpdateAccessTime records an authorized use of keyid at the current time,
// overwriting any existing entry. The scan also expires every entry whose own
// interval has elapsed, amortizing cleanup across calls. Returns false, with
// no state change for keyid, when the key is untracked and the table is still
// full after expiry; callers must surface that as a retry-later condition
// rather than allowing the operation.
func (m *AccessTimeMap) UpdateAccessTime(keyid KeyID, now, timeout uint32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	updated := false
	kept := m.entries[:0]
	for _, entry := range m.entries {
		if entry.keyid == keyid {
			entry.accessTime = now
			entry.timeout = timeout
			kept = append(kept, entry)
			updated = true
			continue
		}
		// now must never precede a stored access time within a boot cycle.
		// The unsigned-widened comparison keeps an invariant violation from
		// wrapping into a spurious expiry.
		if uint64(now) >= uint64(entry.accessTime)+uint64(entry.timeout) {
			continue
		}
		kept = append(kept, entry)
	}
	m.entries = kept

	if updated {
		return true
	}
	if len(m.entries) >= m.maxSize {
		return false
	}
	m.entries = append(m.entries, accessTime{keyid: keyid, accessTime: now, timeout: timeout})
	return true
}

// Len returns the current entry count.
func (m *AccessTimeMap) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Cap returns the configured maximum entry count.
func (m *AccessTimeMap) Cap() int {
	return m.maxSize
}
