package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "coverbook/pkg/domain"
	dErrors "coverbook/pkg/domain-errors"
)

var issuedAt = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestPolicy(t *testing.T) *Policy {
	t.Helper()
	policy, err := NewPolicy(1, "alice", 100, 10_000, 30, issuedAt)
	require.NoError(t, err)
	return policy
}

func TestValidateIssuance(t *testing.T) {
	tests := []struct {
		name         string
		holder       id.Principal
		premium      int64
		coverage     int64
		durationDays int64
		wantErr      bool
	}{
		{"valid inputs", "alice", 100, 10_000, 30, false},
		{"empty holder", "", 100, 10_000, 30, true},
		{"zero premium", "alice", 0, 10_000, 30, true},
		{"negative premium", "alice", -5, 10_000, 30, true},
		{"zero coverage", "alice", 100, 0, 30, true},
		{"zero duration", "alice", 100, 10_000, 0, true},
		{"negative duration", "alice", 100, 10_000, -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIssuance(tt.holder, tt.premium, tt.coverage, tt.durationDays)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidArgument))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewPolicy(t *testing.T) {
	policy := newTestPolicy(t)

	assert.Equal(t, id.PolicyID(1), policy.ID)
	assert.Equal(t, id.Principal("alice"), policy.Holder)
	assert.Equal(t, StatusActive, policy.Status)
	assert.Equal(t, issuedAt, policy.StartDate)

	// End date is start + duration + one grace day.
	assert.Equal(t, issuedAt.AddDate(0, 0, 31), policy.EndDate)
	assert.True(t, policy.EndDate.After(policy.StartDate))
}

func TestPolicyExpiredAt(t *testing.T) {
	policy := newTestPolicy(t)

	assert.False(t, policy.ExpiredAt(issuedAt))
	assert.False(t, policy.ExpiredAt(policy.EndDate), "end date itself is still valid")
	assert.True(t, policy.ExpiredAt(policy.EndDate.Add(time.Second)))
}

func TestPolicyCanPayPremium(t *testing.T) {
	policy := newTestPolicy(t)

	t.Run("exact amount accepted", func(t *testing.T) {
		assert.NoError(t, policy.CanPayPremium(100))
	})

	t.Run("underpayment rejected", func(t *testing.T) {
		err := policy.CanPayPremium(99)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidArgument))
	})

	t.Run("overpayment rejected", func(t *testing.T) {
		err := policy.CanPayPremium(101)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidArgument))
	})

	t.Run("repeat payment while premium paid accepted", func(t *testing.T) {
		policy.ApplyPremiumPaid()
		assert.NoError(t, policy.CanPayPremium(100))
	})

	t.Run("rejected once under claim", func(t *testing.T) {
		policy.ApplyUnderClaim()
		err := policy.CanPayPremium(100)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func TestPolicyCanSubmitClaim(t *testing.T) {
	now := issuedAt.Add(24 * time.Hour)

	t.Run("valid claim on active policy", func(t *testing.T) {
		policy := newTestPolicy(t)
		assert.NoError(t, policy.CanSubmitClaim(5_000, now))
	})

	t.Run("valid claim after premium paid", func(t *testing.T) {
		policy := newTestPolicy(t)
		policy.ApplyPremiumPaid()
		assert.NoError(t, policy.CanSubmitClaim(5_000, now))
	})

	t.Run("claim at exactly full coverage", func(t *testing.T) {
		policy := newTestPolicy(t)
		assert.NoError(t, policy.CanSubmitClaim(10_000, now))
	})

	t.Run("claim above coverage rejected", func(t *testing.T) {
		policy := newTestPolicy(t)
		err := policy.CanSubmitClaim(10_001, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidArgument))
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		policy := newTestPolicy(t)
		err := policy.CanSubmitClaim(0, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidArgument))
	})

	t.Run("expired policy rejected", func(t *testing.T) {
		policy := newTestPolicy(t)
		err := policy.CanSubmitClaim(5_000, policy.EndDate.Add(time.Hour))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeExpired))
	})

	t.Run("state checked before expiry", func(t *testing.T) {
		policy := newTestPolicy(t)
		policy.ApplyUnderClaim()
		err := policy.CanSubmitClaim(5_000, policy.EndDate.Add(time.Hour))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func TestPolicyAdjudicationTransitions(t *testing.T) {
	policy := newTestPolicy(t)

	t.Run("cannot approve without a claim", func(t *testing.T) {
		err := policy.CanApproveClaim()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("cannot settle without approval", func(t *testing.T) {
		policy.ApplyUnderClaim()
		err := policy.CanSettleClaim()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("approve then settle", func(t *testing.T) {
		require.NoError(t, policy.CanApproveClaim())
		policy.ApplyClaimApproved()
		assert.Equal(t, StatusClaimApproved, policy.Status)

		require.NoError(t, policy.CanSettleClaim())
		policy.ApplyClaimSettled()
		assert.Equal(t, StatusClaimSettled, policy.Status)
	})

	t.Run("settled policy is terminal", func(t *testing.T) {
		assert.Error(t, policy.CanPayPremium(100))
		assert.Error(t, policy.CanSubmitClaim(5_000, issuedAt))
		assert.Error(t, policy.CanApproveClaim())
		assert.Error(t, policy.CanSettleClaim())
	})
}
