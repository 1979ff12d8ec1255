// Package domain holds the typed identifiers shared across the ledger.
//
// Typed IDs prevent cross-type assignment: a ClaimID can never be passed
// where a PolicyID is expected, and principals are distinct from free text.
package domain

import (
	"strconv"
	"strings"
)

// PolicyID identifies a policy. IDs are allocated by the ledger store,
// start at 1, strictly increase, and are never reused.
type PolicyID uint64

func (p PolicyID) IsZero() bool { return p == 0 }

func (p PolicyID) String() string { return strconv.FormatUint(uint64(p), 10) }

// ParsePolicyID parses a decimal policy id. Zero is not a valid id.
func ParsePolicyID(s string) (PolicyID, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	return PolicyID(v), nil
}

// ClaimID identifies a claim. Same allocation rules as PolicyID.
type ClaimID uint64

func (c ClaimID) IsZero() bool { return c == 0 }

func (c ClaimID) String() string { return strconv.FormatUint(uint64(c), 10) }

// ParseClaimID parses a decimal claim id. Zero is not a valid id.
func ParseClaimID(s string) (ClaimID, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	return ClaimID(v), nil
}

// Principal is an authenticated caller identity. How the identity is
// established (JWT subject, wallet address, mTLS CN) is the transport's
// concern; the ledger only compares principals for equality.
type Principal string

func (p Principal) IsZero() bool { return strings.TrimSpace(string(p)) == "" }

func (p Principal) String() string { return string(p) }
