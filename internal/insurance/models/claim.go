package models

import (
	id "coverbook/pkg/domain"
	dErrors "coverbook/pkg/domain-errors"
)

// Claim is a request against a policy's coverage.
//
// Invariants:
//   - PolicyID always references an existing policy
//   - Amount was within the policy's coverage at submission time; it is
//     validated once and never re-checked
//   - Settled flips false → true exactly once, at settlement
type Claim struct {
	ID       id.ClaimID  `json:"id"`
	PolicyID id.PolicyID `json:"policy_id"`
	Amount   int64       `json:"amount"`
	Reason   string      `json:"reason"`
	Settled  bool        `json:"settled"`
}

// NewClaim constructs an unsettled claim. Amount bounds are the policy's
// concern (Policy.CanSubmitClaim); this only guards structural invariants.
func NewClaim(claimID id.ClaimID, policyID id.PolicyID, amount int64, reason string) (*Claim, error) {
	if policyID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "policy id is required")
	}
	if amount <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "claim amount must be positive")
	}
	return &Claim{
		ID:       claimID,
		PolicyID: policyID,
		Amount:   amount,
		Reason:   reason,
		Settled:  false,
	}, nil
}

// CanSettle checks that the claim has not already been finalized.
func (c *Claim) CanSettle() error {
	if c.Settled {
		return dErrors.New(dErrors.CodeAlreadySettled, "claim is already settled")
	}
	return nil
}

// ApplySettled marks the claim paid. Call CanSettle first to validate.
func (c *Claim) ApplySettled() {
	c.Settled = true
}
