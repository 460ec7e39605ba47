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

import "time"

// Clock supplies the two time sources enforcement depends on: a monotonic
// boot clock for rate limits and token freshness, and wall time for key
// validity windows.
type Clock interface {
	// Now returns seconds since boot. It must be non-decreasing across calls
	// within a boot cycle.
	Now() uint32

	// WallTimeMillis returns wall-clock milliseconds since the Unix epoch.
	// Used only for activation and expiration date comparisons.
	WallTimeMillis() uint64
}

// systemClock measures boot time from process start, which matches the
// lifetime of the tracking tables.
type systemClock struct {
	start time.Time
}

// NewSystemClock returns a Clock backed by the runtime's monotonic clock and
// the system wall clock.
func NewSystemClock() Clock {
	return &systemClock{start: time.Now()}
}

func (c *systemClock) Now() uint32 {
	return uint32(time.Since(c.start) / time.Second)
}

func (c *systemClock) WallTimeMillis() uint64 {
	return uint64(time.Now().UnixMilli())
}
