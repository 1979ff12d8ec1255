package models

import (
	"time"

	id "coverbook/pkg/domain"
	dErrors "coverbook/pkg/domain-errors"
)

// Policy is the aggregate root for one insurance contract.
//
// Invariants:
//   - Holder is non-empty and immutable after issuance
//   - PremiumAmount > 0, CoverageAmount > 0, DurationDays > 0
//   - EndDate = StartDate + DurationDays days + 1 day, so EndDate > StartDate
//   - Status only moves along PolicyStatus.CanTransitionTo
type Policy struct {
	ID             id.PolicyID  `json:"id"`
	Holder         id.Principal `json:"holder"`
	PremiumAmount  int64        `json:"premium_amount"`
	CoverageAmount int64        `json:"coverage_amount"`
	StartDate      time.Time    `json:"start_date"`
	EndDate        time.Time    `json:"end_date"`
	DurationDays   int64        `json:"duration_days"`
	Status         PolicyStatus `json:"status"`
}

// ValidateIssuance checks the caller-supplied issuance inputs. It runs
// before an id is allocated so a rejected request consumes no id.
func ValidateIssuance(holder id.Principal, premium, coverage, durationDays int64) error {
	if holder.IsZero() {
		return dErrors.New(dErrors.CodeInvalidArgument, "holder is required")
	}
	if premium <= 0 {
		return dErrors.New(dErrors.CodeInvalidArgument, "premium amount must be positive")
	}
	if coverage <= 0 {
		return dErrors.New(dErrors.CodeInvalidArgument, "coverage amount must be positive")
	}
	if durationDays <= 0 {
		return dErrors.New(dErrors.CodeInvalidArgument, "policy duration must be positive")
	}
	return nil
}

// NewPolicy validates the issuance inputs and constructs an Active policy.
// Amounts are in the smallest currency unit.
func NewPolicy(policyID id.PolicyID, holder id.Principal, premium, coverage, durationDays int64, now time.Time) (*Policy, error) {
	if err := ValidateIssuance(holder, premium, coverage, durationDays); err != nil {
		return nil, err
	}
	start := now
	return &Policy{
		ID:             policyID,
		Holder:         holder,
		PremiumAmount:  premium,
		CoverageAmount: coverage,
		StartDate:      start,
		EndDate:        start.AddDate(0, 0, int(durationDays)+1),
		DurationDays:   durationDays,
		Status:         StatusActive,
	}, nil
}

// ExpiredAt reports whether the policy's validity window has closed.
func (p *Policy) ExpiredAt(now time.Time) bool {
	return now.After(p.EndDate)
}

// CanPayPremium checks that a payment of amount is acceptable right now.
// Repeat payments while PremiumPaid are allowed and leave the status as is.
func (p *Policy) CanPayPremium(amount int64) error {
	if !p.Status.Claimable() {
		return dErrors.New(dErrors.CodeInvalidState, "policy does not accept premium payments in status "+p.Status.String())
	}
	if amount != p.PremiumAmount {
		return dErrors.New(dErrors.CodeInvalidArgument, "payment must equal the premium amount exactly")
	}
	return nil
}

// ApplyPremiumPaid transitions the policy to PremiumPaid.
// Call CanPayPremium first to validate.
func (p *Policy) ApplyPremiumPaid() {
	p.Status = StatusPremiumPaid
}

// CanSubmitClaim checks that a claim of amount may be filed at now.
func (p *Policy) CanSubmitClaim(amount int64, now time.Time) error {
	if !p.Status.Claimable() {
		return dErrors.New(dErrors.CodeInvalidState, "policy does not accept claims in status "+p.Status.String())
	}
	if p.ExpiredAt(now) {
		return dErrors.New(dErrors.CodeExpired, "policy is past its end date")
	}
	if amount <= 0 {
		return dErrors.New(dErrors.CodeInvalidArgument, "claim amount must be positive")
	}
	if amount > p.CoverageAmount {
		return dErrors.New(dErrors.CodeInvalidArgument, "claim amount exceeds coverage")
	}
	return nil
}

// ApplyUnderClaim transitions the policy to UnderClaim.
// Call CanSubmitClaim first to validate.
func (p *Policy) ApplyUnderClaim() {
	p.Status = StatusUnderClaim
}

// CanApproveClaim checks that the policy is awaiting adjudication.
func (p *Policy) CanApproveClaim() error {
	if p.Status != StatusUnderClaim {
		return dErrors.New(dErrors.CodeInvalidState, "policy has no claim under review")
	}
	return nil
}

// ApplyClaimApproved transitions the policy to ClaimApproved.
func (p *Policy) ApplyClaimApproved() {
	p.Status = StatusClaimApproved
}

// CanSettleClaim checks that the policy's claim has been approved.
func (p *Policy) CanSettleClaim() error {
	if p.Status != StatusClaimApproved {
		return dErrors.New(dErrors.CodeInvalidState, "policy has no approved claim to settle")
	}
	return nil
}

// ApplyClaimSettled transitions the policy to ClaimSettled.
func (p *Policy) ApplyClaimSettled() {
	p.Status = StatusClaimSettled
}
