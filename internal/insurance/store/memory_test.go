package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"coverbook/internal/insurance/models"
	id "coverbook/pkg/domain"
	"coverbook/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) newPolicy(policyID id.PolicyID, holder id.Principal) *models.Policy {
	policy, err := models.NewPolicy(policyID, holder, 100, 10_000, 30,
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	return policy
}

func (s *MemoryStoreSuite) TestPolicyRoundTrip() {
	s.Run("stores and retrieves a policy", func() {
		policy := s.newPolicy(1, "alice")
		s.Require().NoError(s.store.PutPolicy(s.ctx, policy))

		found, err := s.store.Policy(s.ctx, 1)
		s.Require().NoError(err)
		s.Equal(policy.Holder, found.Holder)
		s.Equal(policy.Status, found.Status)
	})

	s.Run("returns ErrNotFound for unknown id", func() {
		_, err := s.store.Policy(s.ctx, 999)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned policy is a copy", func() {
		policy := s.newPolicy(2, "bob")
		s.Require().NoError(s.store.PutPolicy(s.ctx, policy))

		found, err := s.store.Policy(s.ctx, 2)
		s.Require().NoError(err)
		found.Status = models.StatusClaimSettled

		again, err := s.store.Policy(s.ctx, 2)
		s.Require().NoError(err)
		s.Equal(models.StatusActive, again.Status)
	})
}

func (s *MemoryStoreSuite) TestClaimRoundTrip() {
	claim, err := models.NewClaim(1, 1, 500, "storm damage")
	s.Require().NoError(err)
	s.Require().NoError(s.store.PutClaim(s.ctx, claim))

	found, err := s.store.Claim(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(claim.Amount, found.Amount)
	s.False(found.Settled)

	_, err = s.store.Claim(s.ctx, 42)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestMonotonicIDs() {
	s.Run("policy ids start at one and increase", func() {
		for want := uint64(1); want <= 3; want++ {
			got, err := s.store.NextPolicyID(s.ctx)
			s.Require().NoError(err)
			s.Equal(id.PolicyID(want), got)
		}
	})

	s.Run("claim ids are an independent sequence", func() {
		got, err := s.store.NextClaimID(s.ctx)
		s.Require().NoError(err)
		s.Equal(id.ClaimID(1), got)
	})
}

func (s *MemoryStoreSuite) TestHolderIndexes() {
	s.Run("policies listed in append order", func() {
		s.Require().NoError(s.store.AppendHolderPolicy(s.ctx, "alice", 3))
		s.Require().NoError(s.store.AppendHolderPolicy(s.ctx, "alice", 1))
		s.Require().NoError(s.store.AppendHolderPolicy(s.ctx, "alice", 2))

		ids, err := s.store.HolderPolicies(s.ctx, "alice")
		s.Require().NoError(err)
		s.Equal([]id.PolicyID{3, 1, 2}, ids)
	})

	s.Run("unknown holder gets empty list, not an error", func() {
		ids, err := s.store.HolderPolicies(s.ctx, "nobody")
		s.Require().NoError(err)
		s.Empty(ids)

		claimIDs, err := s.store.HolderClaims(s.ctx, "nobody")
		s.Require().NoError(err)
		s.Empty(claimIDs)
	})

	s.Run("returned slice is detached from the index", func() {
		ids, err := s.store.HolderPolicies(s.ctx, "alice")
		s.Require().NoError(err)
		ids[0] = 99

		again, err := s.store.HolderPolicies(s.ctx, "alice")
		s.Require().NoError(err)
		s.Equal(id.PolicyID(3), again[0])
	})
}

func (s *MemoryStoreSuite) TestInsurerFlags() {
	authorized, err := s.store.InsurerAuthorized(s.ctx, "acme")
	s.Require().NoError(err)
	s.False(authorized, "unknown insurer defaults to unauthorized")

	s.Require().NoError(s.store.SetInsurerAuthorized(s.ctx, "acme", true))
	authorized, err = s.store.InsurerAuthorized(s.ctx, "acme")
	s.Require().NoError(err)
	s.True(authorized)

	s.Require().NoError(s.store.SetInsurerAuthorized(s.ctx, "acme", false))
	authorized, err = s.store.InsurerAuthorized(s.ctx, "acme")
	s.Require().NoError(err)
	s.False(authorized)
}

func (s *MemoryStoreSuite) TestPremiumsReceived() {
	total, err := s.store.PremiumsReceived(s.ctx)
	s.Require().NoError(err)
	s.Zero(total)

	s.Require().NoError(s.store.AddPremiumReceived(s.ctx, 100))
	s.Require().NoError(s.store.AddPremiumReceived(s.ctx, 250))

	total, err = s.store.PremiumsReceived(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(350), total)
}

func (s *MemoryStoreSuite) TestConcurrentIDAllocation() {
	const workers = 50
	var wg sync.WaitGroup
	seen := make(chan id.PolicyID, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := s.store.NextPolicyID(s.ctx)
			s.NoError(err)
			seen <- got
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[id.PolicyID]bool, workers)
	for got := range seen {
		s.False(unique[got], "duplicate policy id %d", got)
		unique[got] = true
	}
	s.Len(unique, workers)
}
