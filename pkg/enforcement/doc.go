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

// Package enforcement implements the authorization-policy engine for
// hardware-backed keys. Given a key's immutable authorization attributes and
// the parameters of a requested operation, the Enforcer decides whether the
// operation may proceed, enforcing validity windows, purpose restrictions,
// per-key rate limits, per-boot usage caps, and secure authentication
// requirements independent of the untrusted caller.
//
// Every denial is one of a closed set of sentinel errors, so callers can
// distinguish a security denial (the key or caller is not permitted) from a
// retry-later resource condition (a tracking table is full). All checks fail
// fast and closed: the first violation encountered aborts the decision.
//
// The Enforcer performs no I/O beyond its collaborators: a 256-bit digest for
// key ID derivation, a signature verifier for auth tokens, a clock, and a
// best-effort logger. The two tracking tables it owns are bounded; capacity
// exhaustion is a first-class result, never silently-growing storage.
package enforcement
