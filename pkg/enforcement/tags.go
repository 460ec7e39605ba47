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

// Tag identifies a single authorization attribute. The enumeration is closed:
// the enforcer switches exhaustively over every tag and treats anything it does
// not recognize as an invalid key blob, so a tag added here without a
// corresponding policy decision fails closed rather than falling through.
type Tag uint32

const (
	// TagInvalid is the zero value and is never valid in any attribute set.
	TagInvalid Tag = iota

	// Cryptographic parameter tags. Validated by the operation layer, not by
	// the enforcer.
	TagPurpose
	TagAlgorithm
	TagKeySize
	TagBlockMode
	TagDigest
	TagPadding
	TagMACLength
	TagNonce
	TagCallerNonce
	TagRSAPublicExponent

	// Validity window tags.
	TagActiveDateTime
	TagOriginationExpireDateTime
	TagUsageExpireDateTime

	// Rate and usage limit tags.
	TagMinSecondsBetweenOps
	TagMaxUsesPerBoot

	// Authentication tags.
	TagUserSecureID
	TagNoAuthRequired
	TagUserAuthType
	TagAuthTimeout
	TagAuthToken

	// Informational tags.
	TagCreationDateTime
	TagOrigin
	TagRollbackResistant
	TagBlobUsageRequirements

	// Provenance and operation-data tags. Never valid in key authorizations.
	TagRootOfTrust
	TagAssociatedData
	TagApplicationData

	// Ignored pending removal.
	TagApplicationID
	TagUserID
	TagAllUsers
	TagAllApplications

	// TagBootloaderOnly marks keys usable only before the OS boots. Such keys
	// must never reach this enforcer at all.
	TagBootloaderOnly
)

// String returns the tag name for logging.
func (t Tag) String() string {
	switch t {
	case TagInvalid:
		return "INVALID"
	case TagPurpose:
		return "PURPOSE"
	case TagAlgorithm:
		return "ALGORITHM"
	case TagKeySize:
		return "KEY_SIZE"
	case TagBlockMode:
		return "BLOCK_MODE"
	case TagDigest:
		return "DIGEST"
	case TagPadding:
		return "PADDING"
	case TagMACLength:
		return "MAC_LENGTH"
	case TagNonce:
		return "NONCE"
	case TagCallerNonce:
		return "CALLER_NONCE"
	case TagRSAPublicExponent:
		return "RSA_PUBLIC_EXPONENT"
	case TagActiveDateTime:
		return "ACTIVE_DATETIME"
	case TagOriginationExpireDateTime:
		return "ORIGINATION_EXPIRE_DATETIME"
	case TagUsageExpireDateTime:
		return "USAGE_EXPIRE_DATETIME"
	case TagMinSecondsBetweenOps:
		return "MIN_SECONDS_BETWEEN_OPS"
	case TagMaxUsesPerBoot:
		return "MAX_USES_PER_BOOT"
	case TagUserSecureID:
		return "USER_SECURE_ID"
	case TagNoAuthRequired:
		return "NO_AUTH_REQUIRED"
	case TagUserAuthType:
		return "USER_AUTH_TYPE"
	case TagAuthTimeout:
		return "AUTH_TIMEOUT"
	case TagAuthToken:
		return "AUTH_TOKEN"
	case TagCreationDateTime:
		return "CREATION_DATETIME"
	case TagOrigin:
		return "ORIGIN"
	case TagRollbackResistant:
		return "ROLLBACK_RESISTANT"
	case TagBlobUsageRequirements:
		return "BLOB_USAGE_REQUIREMENTS"
	case TagRootOfTrust:
		return "ROOT_OF_TRUST"
	case TagAssociatedData:
		return "ASSOCIATED_DATA"
	case TagApplicationData:
		return "APPLICATION_DATA"
	case TagApplicationID:
		return "APPLICATION_ID"
	case TagUserID:
		return "USER_ID"
	case TagAllUsers:
		return "ALL_USERS"
	case TagAllApplications:
		return "ALL_APPLICATIONS"
	case TagBootloaderOnly:
		return "BOOTLOADER_ONLY"
	default:
		return "UNKNOWN"
	}
}

// Purpose identifies the cryptographic operation being requested.
type Purpose uint32

const (
	PurposeEncrypt Purpose = iota
	PurposeDecrypt
	PurposeSign
	PurposeVerify
)

// String returns the purpose name for logging.
func (p Purpose) String() string {
	switch p {
	case PurposeEncrypt:
		return "ENCRYPT"
	case PurposeDecrypt:
		return "DECRYPT"
	case PurposeSign:
		return "SIGN"
	case PurposeVerify:
		return "VERIFY"
	default:
		return "UNKNOWN"
	}
}

// Algorithm identifies the key's cryptographic algorithm.
type Algorithm uint32

const (
	AlgorithmRSA  Algorithm = 1
	AlgorithmEC   Algorithm = 3
	AlgorithmAES  Algorithm = 32
	AlgorithmHMAC Algorithm = 128
)

// Hardware authenticator type bits. A key's TagUserAuthType value is a mask of
// these; a token unlocks the key when the masks intersect.
const (
	AuthenticatorNone        uint32 = 0
	AuthenticatorPassword    uint32 = 1 << 0
	AuthenticatorFingerprint uint32 = 1 << 1
	AuthenticatorAny         uint32 = 0xFFFFFFFF
)

// Attribute is a single tagged authorization value. Exactly one of the value
// fields is meaningful, determined by the tag: small enumerations and counts
// use Uint, secure IDs use Long, timestamps use Date (milliseconds since the
// Unix epoch), flags use Bool, and opaque data uses Bytes.
type Attribute struct {
	Tag   Tag
	Uint  uint32
	Long  uint64
	Date  uint64
	Bool  bool
	Bytes []byte
}

// UintAttr creates a 32-bit integer attribute.
func UintAttr(tag Tag, value uint32) Attribute {
	return Attribute{Tag: tag, Uint: value}
}

// LongAttr creates a 64-bit integer attribute.
func LongAttr(tag Tag, value uint64) Attribute {
	return Attribute{Tag: tag, Long: value}
}

// DateAttr creates a timestamp attribute in milliseconds since the Unix epoch.
func DateAttr(tag Tag, millis uint64) Attribute {
	return Attribute{Tag: tag, Date: millis}
}

// BoolAttr creates a boolean attribute.
func BoolAttr(tag Tag, value bool) Attribute {
	return Attribute{Tag: tag, Bool: value}
}

// BytesAttr creates an opaque blob attribute.
func BytesAttr(tag Tag, value []byte) Attribute {
	return Attribute{Tag: tag, Bytes: value}
}

// AuthorizationSet is an ordered sequence of tagged attributes. It serves two
// roles: key authorizations baked into a key at generation time, and operation
// parameters supplied fresh (and untrusted) with each request. The enforcer
// only ever reads a set, never mutates it.
type AuthorizationSet []Attribute

// Find returns the index of the first attribute with the given tag, or -1.
func (s AuthorizationSet) Find(tag Tag) int {
	for i := range s {
		if s[i].Tag == tag {
			return i
		}
	}
	return -1
}

// GetUint returns the 32-bit value of the first attribute with the given tag.
func (s AuthorizationSet) GetUint(tag Tag) (uint32, bool) {
	if i := s.Find(tag); i != -1 {
		return s[i].Uint, true
	}
	return 0, false
}

// GetLong returns the 64-bit value of the first attribute with the given tag.
func (s AuthorizationSet) GetLong(tag Tag) (uint64, bool) {
	if i := s.Find(tag); i != -1 {
		return s[i].Long, true
	}
	return 0, false
}

// GetDate returns the timestamp value of the first attribute with the given tag.
func (s AuthorizationSet) GetDate(tag Tag) (uint64, bool) {
	if i := s.Find(tag); i != -1 {
		return s[i].Date, true
	}
	return 0, false
}

// GetBytes returns the blob value of the first attribute with the given tag.
func (s AuthorizationSet) GetBytes(tag Tag) ([]byte, bool) {
	if i := s.Find(tag); i != -1 {
		return s[i].Bytes, true
	}
	return nil, false
}

// ContainsUint reports whether the set holds an attribute with the given tag
// and 32-bit value.
func (s AuthorizationSet) ContainsUint(tag Tag, value uint32) bool {
	for i := range s {
		if s[i].Tag == tag && s[i].Uint == value {
			return true
		}
	}
	return false
}

// isPublicKeyAlgorithm reports whether the set declares an asymmetric
// algorithm. Public-key algorithms authorize VERIFY and ENCRYPT implicitly,
// since those operations need only the public half.
func isPublicKeyAlgorithm(authSet AuthorizationSet) bool {
	algorithm, ok := authSet.GetUint(TagAlgorithm)
	if !ok {
		return false
	}
	return Algorithm(algorithm) == AlgorithmRSA || Algorithm(algorithm) == AlgorithmEC
}
