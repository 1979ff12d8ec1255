// Package store is the ledger store: the single owner of persisted policies,
// claims, per-holder indices, the authorized-insurer set, the monotonic id
// counters, and the premiums-received total. The registry holds no copies;
// every read and write goes through a Store.
package store

import (
	"context"

	"coverbook/internal/insurance/models"
	id "coverbook/pkg/domain"
	dErrors "coverbook/pkg/domain-errors"
	"coverbook/pkg/platform/sentinel"
)

// ErrNotFound keeps store-specific lookups consistent across the in-memory
// and Postgres implementations. Services translate it to CodeNotFound.
var ErrNotFound = dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "record not found")

// Store is the ledger store contract. All operations are strongly consistent
// within one logical operation: when the context carries a SQL transaction
// (pkg/platform/tx), reads and writes join it.
type Store interface {
	// Policy returns the policy or ErrNotFound.
	Policy(ctx context.Context, policyID id.PolicyID) (*models.Policy, error)
	// PutPolicy inserts or replaces a policy record.
	PutPolicy(ctx context.Context, policy *models.Policy) error

	// Claim returns the claim or ErrNotFound.
	Claim(ctx context.Context, claimID id.ClaimID) (*models.Claim, error)
	// PutClaim inserts or replaces a claim record.
	PutClaim(ctx context.Context, claim *models.Claim) error

	// AppendHolderPolicy appends a policy id to the holder's index.
	// Indices are append-only; entries are never removed.
	AppendHolderPolicy(ctx context.Context, holder id.Principal, policyID id.PolicyID) error
	// AppendHolderClaim appends a claim id to the holder's index.
	AppendHolderClaim(ctx context.Context, holder id.Principal, claimID id.ClaimID) error
	// HolderPolicies returns the holder's policy ids in insertion order.
	HolderPolicies(ctx context.Context, holder id.Principal) ([]id.PolicyID, error)
	// HolderClaims returns the holder's claim ids in insertion order.
	HolderClaims(ctx context.Context, holder id.Principal) ([]id.ClaimID, error)

	// InsurerAuthorized returns the insurer flag; unknown principals are false.
	InsurerAuthorized(ctx context.Context, insurer id.Principal) (bool, error)
	// SetInsurerAuthorized sets the insurer flag. Idempotent.
	SetInsurerAuthorized(ctx context.Context, insurer id.Principal, authorized bool) error

	// NextPolicyID atomically allocates the next policy id, starting at 1.
	// Allocated ids are never reused, even if the operation later fails.
	NextPolicyID(ctx context.Context) (id.PolicyID, error)
	// NextClaimID atomically allocates the next claim id, starting at 1.
	NextClaimID(ctx context.Context) (id.ClaimID, error)

	// AddPremiumReceived accumulates an accepted premium payment.
	AddPremiumReceived(ctx context.Context, amount int64) error
	// PremiumsReceived returns the accumulated total.
	PremiumsReceived(ctx context.Context) (int64, error)
}
