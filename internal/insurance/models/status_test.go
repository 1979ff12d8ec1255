package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicyStatusValid(t *testing.T) {
	for _, s := range []PolicyStatus{
		StatusPending, StatusActive, StatusPremiumPaid, StatusUnderClaim,
		StatusClaimApproved, StatusClaimSettled, StatusExpired,
		StatusCancelled, StatusLapsed, StatusClaimRejected,
	} {
		assert.True(t, s.Valid(), "status %q should be valid", s)
	}
	assert.False(t, PolicyStatus("bogus").Valid())
	assert.False(t, PolicyStatus("").Valid())
}

func TestPolicyStatusTransitions(t *testing.T) {
	tests := []struct {
		from PolicyStatus
		to   PolicyStatus
		ok   bool
	}{
		{StatusActive, StatusPremiumPaid, true},
		{StatusActive, StatusUnderClaim, true},
		{StatusPremiumPaid, StatusPremiumPaid, true},
		{StatusPremiumPaid, StatusUnderClaim, true},
		{StatusUnderClaim, StatusClaimApproved, true},
		{StatusClaimApproved, StatusClaimSettled, true},

		{StatusActive, StatusClaimApproved, false},
		{StatusUnderClaim, StatusClaimSettled, false},
		{StatusClaimSettled, StatusActive, false},
		{StatusPending, StatusActive, false},
		{StatusExpired, StatusActive, false},
		{StatusClaimRejected, StatusUnderClaim, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestPolicyStatusClaimable(t *testing.T) {
	assert.True(t, StatusActive.Claimable())
	assert.True(t, StatusPremiumPaid.Claimable())

	for _, s := range []PolicyStatus{
		StatusPending, StatusUnderClaim, StatusClaimApproved, StatusClaimSettled,
		StatusExpired, StatusCancelled, StatusLapsed, StatusClaimRejected,
	} {
		assert.False(t, s.Claimable(), "status %q should not be claimable", s)
	}
}
