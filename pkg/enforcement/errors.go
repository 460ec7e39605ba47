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

import "errors"

// Authorization failures form a closed set. Every denial maps to exactly one
// of these sentinels so callers can distinguish a security denial from a
// retry-later resource condition with errors.Is.
var (
	// ErrIncompatiblePurpose indicates the key does not authorize the requested purpose.
	ErrIncompatiblePurpose = errors.New("enforcement: incompatible purpose")

	// ErrUnsupportedPurpose indicates the requested purpose is not a recognized operation.
	ErrUnsupportedPurpose = errors.New("enforcement: unsupported purpose")

	// ErrKeyNotYetValid indicates the key's activation date is in the future.
	ErrKeyNotYetValid = errors.New("enforcement: key not yet valid")

	// ErrKeyExpired indicates the key's expiration date has passed for the requested purpose.
	ErrKeyExpired = errors.New("enforcement: key expired")

	// ErrKeyRateLimitExceeded indicates the key's minimum interval between operations
	// has not yet elapsed.
	ErrKeyRateLimitExceeded = errors.New("enforcement: key rate limit exceeded")

	// ErrKeyMaxOpsExceeded indicates the key has reached its per-boot usage cap.
	ErrKeyMaxOpsExceeded = errors.New("enforcement: key max operations exceeded")

	// ErrTooManyOperations indicates a tracking table is full. This is a
	// retry-later resource condition, not a denial of the key itself.
	ErrTooManyOperations = errors.New("enforcement: too many operations")

	// ErrInvalidKeyBlob indicates the key authorizations are malformed: a
	// forbidden tag is present, an unknown tag was encountered, or the key both
	// requires and waives authentication.
	ErrInvalidKeyBlob = errors.New("enforcement: invalid key blob")

	// ErrUserNotAuthenticated indicates authentication was required but no
	// matching auth token was presented.
	ErrUserNotAuthenticated = errors.New("enforcement: user not authenticated")

	// ErrCallerNonceProhibited indicates the caller supplied a nonce for a key
	// that did not opt in to caller-provided nonces.
	ErrCallerNonceProhibited = errors.New("enforcement: caller nonce prohibited")

	// ErrUnknown indicates an underlying cryptographic primitive failed.
	ErrUnknown = errors.New("enforcement: unknown error")
)

// Auth token parsing failures. These surface through AuthTokenMatches as a
// plain mismatch; the sentinels exist for direct users of ParseHwAuthToken.
var (
	// ErrInvalidTokenSize indicates the token blob is not exactly HwAuthTokenSize bytes.
	ErrInvalidTokenSize = errors.New("enforcement: invalid auth token size")

	// ErrInvalidTokenVersion indicates the token's version byte is not HwAuthTokenVersion.
	ErrInvalidTokenVersion = errors.New("enforcement: invalid auth token version")
)
