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
	"github.com/jeremyhahn/go-keyauth/pkg/logging"
)

const (
	// DefaultAccessTimeTableSize is the default capacity of the rate-limit table.
	DefaultAccessTimeTableSize = 32

	// DefaultAccessCountTableSize is the default capacity of the usage-count table.
	DefaultAccessCountTableSize = 32
)

// Config holds enforcer construction parameters. Zero values select
// production defaults; tests pass small table sizes and fake collaborators to
// exercise capacity and timing paths.
type Config struct {
	// AccessTimeTableSize caps the number of concurrently tracked rate-limited keys.
	AccessTimeTableSize int

	// AccessCountTableSize caps the number of concurrently tracked usage-capped keys.
	AccessCountTableSize int

	// Clock supplies boot and wall time. Defaults to NewSystemClock.
	Clock Clock

	// Verifier validates auth token signatures. Required for keys carrying
	// TagUserSecureID; without one, every signature check fails closed.
	Verifier TokenVerifier

	// Digester derives key IDs. Defaults to SHA256Digester.
	Digester Digester

	// Logger receives best-effort diagnostic records. Defaults to the
	// package default logger.
	Logger *logging.Logger
}

// Enforcer is the authorization-policy engine: given a key's baked-in
// authorization attributes and the parameters of a requested operation, it
// decides whether the operation may proceed. It owns the two bounded
// tracking tables and is safe for concurrent use.
type Enforcer struct {
	accessTimeMap  *AccessTimeMap
	accessCountMap *AccessCountMap
	clock          Clock
	verifier       TokenVerifier
	digester       Digester
	logger         *logging.Logger
}

// rejectingVerifier fails every signature check. Installed when no verifier
// is configured so that authentication-gated keys fail closed instead of
// dereferencing nil.
type rejectingVerifier struct{}

func (rejectingVerifier) Verify([]byte) bool { return false }

// New creates an Enforcer. Tables start empty and live until the enforcer is
// discarded; there is no reset short of process restart.
func New(cfg *Config) *Enforcer {
	if cfg == nil {
		cfg = &Config{}
	}
	timeSize := cfg.AccessTimeTableSize
	if timeSize <= 0 {
		timeSize = DefaultAccessTimeTableSize
	}
	countSize := cfg.AccessCountTableSize
	if countSize <= 0 {
		countSize = DefaultAccessCountTableSize
	}
	clock := cfg.Clock
	if clock == nil {
		clock = NewSystemClock()
	}
	var verifier TokenVerifier = cfg.Verifier
	if verifier == nil {
		verifier = rejectingVerifier{}
	}
	var digester Digester = cfg.Digester
	if digester == nil {
		digester = SHA256Digester{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &Enforcer{
		accessTimeMap:  NewAccessTimeMap(timeSize),
		accessCountMap: NewAccessCountMap(countSize),
		clock:          clock,
		verifier:       verifier,
		digester:       digester,
		logger:         logger,
	}
}

// isOriginationPurpose reports whether the purpose creates new cryptographic
// output (encrypt, sign), governed by the origination expiry window.
func isOriginationPurpose(purpose Purpose) bool {
	return purpose == PurposeEncrypt || purpose == PurposeSign
}

// isUsagePurpose reports whether the purpose consumes existing cryptographic
// output (decrypt, verify), governed by the usage expiry window.
func isUsagePurpose(purpose Purpose) bool {
	return purpose == PurposeDecrypt || purpose == PurposeVerify
}

// canSkipAuthentication reports whether the auth token check may be deferred.
// During begin with auth-per-operation keys there is nothing to check yet:
// the token's challenge is the operation handle, which does not exist until
// begin returns.
func canSkipAuthentication(isBeginOperation, isAuthPerOpKey bool) bool {
	return isBeginOperation && isAuthPerOpKey
}

// authorizedPurpose checks the requested purpose against the key's explicit
// purpose list. Verify and encrypt are implicitly authorized for public-key
// algorithms, since anyone holding the public key can perform them anyway.
func authorizedPurpose(purpose Purpose, authSet AuthorizationSet) error {
	switch purpose {
	case PurposeVerify, PurposeEncrypt:
		if isPublicKeyAlgorithm(authSet) || authSet.ContainsUint(TagPurpose, uint32(purpose)) {
			return nil
		}
		return ErrIncompatiblePurpose

	case PurposeSign, PurposeDecrypt:
		if authSet.ContainsUint(TagPurpose, uint32(purpose)) {
			return nil
		}
		return ErrIncompatiblePurpose

	default:
		return ErrUnsupportedPurpose
	}
}

// AuthorizeOperation decides whether the requested operation on the key may
// proceed. authSet holds the key's immutable authorizations, operationParams
// the caller-supplied (untrusted) request parameters. opHandle is the
// operation's handle, zero during begin before one is assigned.
//
// The decision is a single forward pass over authSet with per-tag policy,
// failing closed on the first violation, followed by aggregate checks and the
// deferred tracking-table commits. Only a fully clean pass returns nil.
func (e *Enforcer) AuthorizeOperation(purpose Purpose, keyid KeyID, authSet AuthorizationSet,
	operationParams AuthorizationSet, opHandle uint64, isBeginOperation bool) error {

	// Locate entries needed to handle TagUserSecureID before the main pass.
	authTimeoutIndex := -1
	authTypeIndex := -1
	noAuthRequiredIndex := -1
	for pos := range authSet {
		switch authSet[pos].Tag {
		case TagAuthTimeout:
			authTimeoutIndex = pos
		case TagUserAuthType:
			authTypeIndex = pos
		case TagNoAuthRequired:
			noAuthRequiredIndex = pos
		}
	}

	if err := authorizedPurpose(purpose, authSet); err != nil {
		return err
	}

	// Set when the key has a minimum interval between operations; the table
	// commit happens after the pass so earlier violations win.
	var minOpsTimeout uint32
	minOpsTimeoutFound := false

	updateAccessCount := false
	foundCallerNonce := false
	authenticationRequired := false
	authTokenMatched := false

	for _, param := range authSet {
		switch param.Tag {

		case TagActiveDateTime:
			if e.clock.WallTimeMillis() < param.Date {
				return ErrKeyNotYetValid
			}

		case TagOriginationExpireDateTime:
			if isOriginationPurpose(purpose) && e.clock.WallTimeMillis() > param.Date {
				return ErrKeyExpired
			}

		case TagUsageExpireDateTime:
			if isUsagePurpose(purpose) && e.clock.WallTimeMillis() > param.Date {
				return ErrKeyExpired
			}

		case TagMinSecondsBetweenOps:
			minOpsTimeout = param.Uint
			minOpsTimeoutFound = true
			if !e.minTimeBetweenOpsPassed(minOpsTimeout, keyid) {
				return ErrKeyRateLimitExceeded
			}

		case TagMaxUsesPerBoot:
			updateAccessCount = true
			if !e.maxUsesPerBootNotExceeded(keyid, param.Uint) {
				return ErrKeyMaxOpsExceeded
			}

		case TagUserSecureID:
			if noAuthRequiredIndex != -1 {
				// Key both requires and waives authentication.
				return ErrInvalidKeyBlob
			}
			if !canSkipAuthentication(isBeginOperation, authTimeoutIndex == -1) ||
				operationParams.Find(TagAuthToken) != -1 {
				authenticationRequired = true
				if e.AuthTokenMatches(authSet, operationParams, param.Long,
					authTypeIndex, authTimeoutIndex, opHandle, isBeginOperation) {
					authTokenMatched = true
				}
			}

		case TagCallerNonce:
			foundCallerNonce = true

		// Tags that must never appear in key authorizations.
		case TagInvalid, TagAuthToken, TagRootOfTrust, TagApplicationData:
			return ErrInvalidKeyBlob

		// Tags used for cryptographic parameters.
		case TagPurpose, TagAlgorithm, TagKeySize, TagBlockMode, TagDigest,
			TagMACLength, TagPadding, TagNonce:

		// Tags not used for operations.
		case TagBlobUsageRequirements:

		// Algorithm-specific parameters not used for access control.
		case TagRSAPublicExponent:

		// Informational tags.
		case TagCreationDateTime, TagOrigin, TagRollbackResistant:

		// Tags handled together with TagUserSecureID.
		case TagNoAuthRequired, TagUserAuthType, TagAuthTimeout:

		// Tag providing data to operations.
		case TagAssociatedData:

		// Ignored pending removal.
		case TagAllApplications, TagApplicationID, TagUserID, TagAllUsers:

		case TagBootloaderOnly:
			return ErrInvalidKeyBlob

		default:
			// Unrecognized tag. New tags must be given an explicit policy
			// above; until then the key is rejected.
			e.logger.Errorf("unrecognized tag %d in key authorizations", param.Tag)
			return ErrInvalidKeyBlob
		}
	}

	if authenticationRequired && !authTokenMatched {
		e.logger.Errorf("auth required but no matching auth token found")
		return ErrUserNotAuthenticated
	}

	if !foundCallerNonce && operationParams.Find(TagNonce) != -1 {
		return ErrCallerNonceProhibited
	}

	if minOpsTimeoutFound &&
		!e.accessTimeMap.UpdateAccessTime(keyid, e.clock.Now(), minOpsTimeout) {
		e.logger.Errorf("rate-limited keys table full; entries will time out")
		return ErrTooManyOperations
	}

	if updateAccessCount && !e.accessCountMap.IncrementAccessCount(keyid) {
		e.logger.Errorf("usage count-limited keys table full until restart")
		return ErrTooManyOperations
	}

	return nil
}

// minTimeBetweenOpsPassed reports whether the key's minimum interval has
// elapsed since its last recorded access. No recorded access satisfies the
// constraint trivially.
func (e *Enforcer) minTimeBetweenOpsPassed(minTimeBetween uint32, keyid KeyID) bool {
	lastAccessTime, ok := e.accessTimeMap.LastAccessTime(keyid)
	if !ok {
		return true
	}
	return int64(minTimeBetween) <= int64(e.clock.Now())-int64(lastAccessTime)
}

// maxUsesPerBootNotExceeded reports whether the key is still under its usage
// cap. The check runs before the increment, so the Nth use of a cap of N is
// permitted and recorded.
func (e *Enforcer) maxUsesPerBootNotExceeded(keyid KeyID, maxUses uint32) bool {
	count, ok := e.accessCountMap.AccessCount(keyid)
	if !ok {
		return true
	}
	return count < maxUses
}

// AuthTokenMatches validates the caller's auth token against the key's
// authentication requirements: presence, size, version, signature, challenge
// binding, secure-ID match, authenticator type overlap, and freshness. It
// fails closed on the first unmet condition and has no side effects beyond
// logging.
func (e *Enforcer) AuthTokenMatches(authSet AuthorizationSet, operationParams AuthorizationSet,
	userSecureID uint64, authTypeIndex, authTimeoutIndex int, opHandle uint64,
	isBeginOperation bool) bool {

	tokenBytes, ok := operationParams.GetBytes(TagAuthToken)
	if !ok {
		e.logger.Errorf("authentication required, but auth token not provided")
		return false
	}

	if len(tokenBytes) != HwAuthTokenSize {
		e.logger.Errorf("auth token is the wrong size (%d expected, %d found)",
			HwAuthTokenSize, len(tokenBytes))
		return false
	}

	token, err := ParseHwAuthToken(tokenBytes)
	if err != nil {
		e.logger.Errorf("auth token rejected: %v", err)
		return false
	}

	if !e.verifier.Verify(tokenBytes) {
		e.logger.Errorf("auth token signature invalid")
		return false
	}

	if authTimeoutIndex == -1 && opHandle != 0 && opHandle != token.Challenge {
		e.logger.Errorf("auth token has the challenge %d, need %d", token.Challenge, opHandle)
		return false
	}

	if userSecureID != token.UserID && userSecureID != token.AuthenticatorID {
		e.logger.Infof("auth token SIDs %d and %d do not match key SID %d",
			token.UserID, token.AuthenticatorID, userSecureID)
		return false
	}

	if authTypeIndex < 0 || authTypeIndex >= len(authSet) {
		e.logger.Errorf("auth required but no auth type found")
		return false
	}
	if authSet[authTypeIndex].Tag != TagUserAuthType {
		return false
	}

	keyAuthTypeMask := authSet[authTypeIndex].Uint
	if keyAuthTypeMask&token.AuthenticatorType == 0 {
		e.logger.Errorf("key requires match of auth type mask %#x, but token contained %#x",
			keyAuthTypeMask, token.AuthenticatorType)
		return false
	}

	if authTimeoutIndex != -1 && isBeginOperation {
		if authSet[authTimeoutIndex].Tag != TagAuthTimeout {
			return false
		}
		if token.timedOut(authSet[authTimeoutIndex].Uint, e.clock.Now()) {
			e.logger.Errorf("auth token has timed out")
			return false
		}
	}

	return true
}

// Stats reports tracking-table occupancy for monitoring.
type Stats struct {
	AccessTimeEntries   int `json:"access_time_entries" yaml:"access_time_entries"`
	AccessTimeCapacity  int `json:"access_time_capacity" yaml:"access_time_capacity"`
	AccessCountEntries  int `json:"access_count_entries" yaml:"access_count_entries"`
	AccessCountCapacity int `json:"access_count_capacity" yaml:"access_count_capacity"`
}

// GetStats returns a point-in-time snapshot of table occupancy.
func (e *Enforcer) GetStats() Stats {
	return Stats{
		AccessTimeEntries:   e.accessTimeMap.Len(),
		AccessTimeCapacity:  e.accessTimeMap.Cap(),
		AccessCountEntries:  e.accessCountMap.Len(),
		AccessCountCapacity: e.accessCountMap.Cap(),
	}
}
