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
	"fmt"
	"strings"
)

// ParsePurpose converts a purpose name (case-insensitive) to a Purpose.
func ParsePurpose(s string) (Purpose, error) {
	switch strings.ToUpper(s) {
	case "ENCRYPT":
		return PurposeEncrypt, nil
	case "DECRYPT":
		return PurposeDecrypt, nil
	case "SIGN":
		return PurposeSign, nil
	case "VERIFY":
		return PurposeVerify, nil
	default:
		return 0, fmt.Errorf("enforcement: unknown purpose %q", s)
	}
}

// tagNames maps tag names to tags, the inverse of Tag.String.
var tagNames = map[string]Tag{
	"PURPOSE":                     TagPurpose,
	"ALGORITHM":                   TagAlgorithm,
	"KEY_SIZE":                    TagKeySize,
	"BLOCK_MODE":                  TagBlockMode,
	"DIGEST":                      TagDigest,
	"PADDING":                     TagPadding,
	"MAC_LENGTH":                  TagMACLength,
	"NONCE":                       TagNonce,
	"CALLER_NONCE":                TagCallerNonce,
	"RSA_PUBLIC_EXPONENT":         TagRSAPublicExponent,
	"ACTIVE_DATETIME":             TagActiveDateTime,
	"ORIGINATION_EXPIRE_DATETIME": TagOriginationExpireDateTime,
	"USAGE_EXPIRE_DATETIME":       TagUsageExpireDateTime,
	"MIN_SECONDS_BETWEEN_OPS":     TagMinSecondsBetweenOps,
	"MAX_USES_PER_BOOT":           TagMaxUsesPerBoot,
	"USER_SECURE_ID":              TagUserSecureID,
	"NO_AUTH_REQUIRED":            TagNoAuthRequired,
	"USER_AUTH_TYPE":              TagUserAuthType,
	"AUTH_TIMEOUT":                TagAuthTimeout,
	"AUTH_TOKEN":                  TagAuthToken,
	"CREATION_DATETIME":           TagCreationDateTime,
	"ORIGIN":                      TagOrigin,
	"ROLLBACK_RESISTANT":          TagRollbackResistant,
	"BLOB_USAGE_REQUIREMENTS":     TagBlobUsageRequirements,
	"ROOT_OF_TRUST":               TagRootOfTrust,
	"ASSOCIATED_DATA":             TagAssociatedData,
	"APPLICATION_DATA":            TagApplicationData,
	"APPLICATION_ID":              TagApplicationID,
	"USER_ID":                     TagUserID,
	"ALL_USERS":                   TagAllUsers,
	"ALL_APPLICATIONS":            TagAllApplications,
	"BOOTLOADER_ONLY":             TagBootloaderOnly,
}

// ParseTag converts a tag name (case-insensitive) to a Tag.
func ParseTag(s string) (Tag, error) {
	if tag, ok := tagNames[strings.ToUpper(s)]; ok {
		return tag, nil
	}
	return TagInvalid, fmt.Errorf("enforcement: unknown tag %q", s)
}

// AttributeDoc is the wire form of an Attribute, used by the REST API and the
// CLI request documents. The tag is its symbolic name; which value field is
// meaningful follows from the tag, exactly as with Attribute.
type AttributeDoc struct {
	Tag   string `json:"tag" yaml:"tag"`
	Uint  uint32 `json:"uint,omitempty" yaml:"uint,omitempty"`
	Long  uint64 `json:"long,omitempty" yaml:"long,omitempty"`
	Date  uint64 `json:"date,omitempty" yaml:"date,omitempty"`
	Bool  bool   `json:"bool,omitempty" yaml:"bool,omitempty"`
	Bytes []byte `json:"bytes,omitempty" yaml:"bytes,omitempty"`
}

// Attribute converts the document to an Attribute.
func (d AttributeDoc) Attribute() (Attribute, error) {
	tag, err := ParseTag(d.Tag)
	if err != nil {
		return Attribute{}, err
	}
	return Attribute{
		Tag:   tag,
		Uint:  d.Uint,
		Long:  d.Long,
		Date:  d.Date,
		Bool:  d.Bool,
		Bytes: d.Bytes,
	}, nil
}

// DocsToSet converts a sequence of attribute documents to an AuthorizationSet,
// preserving order.
func DocsToSet(docs []AttributeDoc) (AuthorizationSet, error) {
	set := make(AuthorizationSet, 0, len(docs))
	for _, doc := range docs {
		attr, err := doc.Attribute()
		if err != nil {
			return nil, err
		}
		set = append(set, attr)
	}
	return set, nil
}
