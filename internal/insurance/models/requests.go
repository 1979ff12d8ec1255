package models

import id "coverbook/pkg/domain"

// HTTP request/response shapes for the registry endpoints.

type IssuePolicyRequest struct {
	Holder         string `json:"holder"`
	PremiumAmount  int64  `json:"premium_amount"`
	CoverageAmount int64  `json:"coverage_amount"`
	DurationDays   int64  `json:"duration_days"`
}

type IssuePolicyResponse struct {
	PolicyID id.PolicyID `json:"policy_id"`
}

type PayPremiumRequest struct {
	Amount int64 `json:"amount"`
}

type SubmitClaimRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

type SubmitClaimResponse struct {
	ClaimID id.ClaimID `json:"claim_id"`
}

type InsurerStatusResponse struct {
	Insurer    string `json:"insurer"`
	Authorized bool   `json:"authorized"`
}

type UserPoliciesResponse struct {
	PolicyIDs []id.PolicyID `json:"policy_ids"`
}

type UserClaimsResponse struct {
	ClaimIDs []id.ClaimID `json:"claim_ids"`
}

type PremiumsReceivedResponse struct {
	Total int64 `json:"total"`
}
