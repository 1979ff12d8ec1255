package models

// PolicyStatus is the lifecycle state of a policy.
//
// Exposed transitions:
//
//	Active → PremiumPaid            (premium payment)
//	PremiumPaid → PremiumPaid       (repeat payment, allowed)
//	Active|PremiumPaid → UnderClaim (claim submission)
//	UnderClaim → ClaimApproved      (adjudication)
//	ClaimApproved → ClaimSettled    (settlement)
//
// Pending, Expired, Cancelled, Lapsed, and ClaimRejected are valid stored
// values with no exposed transition into them. They round-trip through the
// store unchanged; no operation produces them.
type PolicyStatus string

const (
	StatusPending       PolicyStatus = "pending"
	StatusActive        PolicyStatus = "active"
	StatusPremiumPaid   PolicyStatus = "premium_paid"
	StatusUnderClaim    PolicyStatus = "under_claim"
	StatusClaimApproved PolicyStatus = "claim_approved"
	StatusClaimSettled  PolicyStatus = "claim_settled"
	StatusExpired       PolicyStatus = "expired"
	StatusCancelled     PolicyStatus = "cancelled"
	StatusLapsed        PolicyStatus = "lapsed"
	StatusClaimRejected PolicyStatus = "claim_rejected"
)

// Valid reports whether s is a known status value.
func (s PolicyStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusPremiumPaid, StatusUnderClaim,
		StatusClaimApproved, StatusClaimSettled, StatusExpired,
		StatusCancelled, StatusLapsed, StatusClaimRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether the exposed operation surface permits
// moving from s to next.
func (s PolicyStatus) CanTransitionTo(next PolicyStatus) bool {
	switch s {
	case StatusActive:
		return next == StatusPremiumPaid || next == StatusUnderClaim
	case StatusPremiumPaid:
		return next == StatusPremiumPaid || next == StatusUnderClaim
	case StatusUnderClaim:
		return next == StatusClaimApproved
	case StatusClaimApproved:
		return next == StatusClaimSettled
	}
	return false
}

// Claimable reports whether a policy in this status accepts premium payments
// and new claims.
func (s PolicyStatus) Claimable() bool {
	return s == StatusActive || s == StatusPremiumPaid
}

func (s PolicyStatus) String() string { return string(s) }
