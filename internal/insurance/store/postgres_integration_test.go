//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"coverbook/internal/insurance/models"
	id "coverbook/pkg/domain"
	"coverbook/pkg/platform/sentinel"
	txcontext "coverbook/pkg/platform/tx"
	"coverbook/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore
	ctx   context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgresStore(s.pg.DB)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.pg != nil {
		_ = s.pg.DB.Close()
		_ = s.pg.Container.Terminate(context.Background())
	}
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx))
}

func (s *PostgresStoreSuite) newPolicy(policyID id.PolicyID, holder id.Principal) *models.Policy {
	policy, err := models.NewPolicy(policyID, holder, 100, 10_000, 30,
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	return policy
}

func (s *PostgresStoreSuite) TestPolicyRoundTrip() {
	policy := s.newPolicy(1, "alice")
	s.Require().NoError(s.store.PutPolicy(s.ctx, policy))

	found, err := s.store.Policy(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(policy.Holder, found.Holder)
	s.Equal(policy.PremiumAmount, found.PremiumAmount)
	s.Equal(models.StatusActive, found.Status)
	s.WithinDuration(policy.EndDate, found.EndDate, time.Second)

	_, err = s.store.Policy(s.ctx, 999)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestPutPolicyUpdatesStatus() {
	policy := s.newPolicy(1, "alice")
	s.Require().NoError(s.store.PutPolicy(s.ctx, policy))

	policy.ApplyPremiumPaid()
	s.Require().NoError(s.store.PutPolicy(s.ctx, policy))

	found, err := s.store.Policy(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(models.StatusPremiumPaid, found.Status)
}

func (s *PostgresStoreSuite) TestClaimRoundTrip() {
	s.Require().NoError(s.store.PutPolicy(s.ctx, s.newPolicy(1, "alice")))

	claim, err := models.NewClaim(1, 1, 500, "storm damage")
	s.Require().NoError(err)
	s.Require().NoError(s.store.PutClaim(s.ctx, claim))

	found, err := s.store.Claim(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(id.PolicyID(1), found.PolicyID)
	s.False(found.Settled)

	claim.ApplySettled()
	s.Require().NoError(s.store.PutClaim(s.ctx, claim))

	found, err = s.store.Claim(s.ctx, 1)
	s.Require().NoError(err)
	s.True(found.Settled)
}

func (s *PostgresStoreSuite) TestCounters() {
	s.Run("policy ids start at one", func() {
		got, err := s.store.NextPolicyID(s.ctx)
		s.Require().NoError(err)
		s.Equal(id.PolicyID(1), got)

		got, err = s.store.NextPolicyID(s.ctx)
		s.Require().NoError(err)
		s.Equal(id.PolicyID(2), got)
	})

	s.Run("claim ids are independent", func() {
		got, err := s.store.NextClaimID(s.ctx)
		s.Require().NoError(err)
		s.Equal(id.ClaimID(1), got)
	})

	s.Run("rolled back allocation is returned", func() {
		tx, err := s.pg.DB.BeginTx(s.ctx, nil)
		s.Require().NoError(err)

		txCtx := txcontext.WithTx(s.ctx, tx)
		got, err := s.store.NextPolicyID(txCtx)
		s.Require().NoError(err)
		s.Equal(id.PolicyID(3), got)
		s.Require().NoError(tx.Rollback())

		got, err = s.store.NextPolicyID(s.ctx)
		s.Require().NoError(err)
		s.Equal(id.PolicyID(3), got, "rollback must return the allocated id")
	})
}

func (s *PostgresStoreSuite) TestHolderIndexes() {
	s.Require().NoError(s.store.PutPolicy(s.ctx, s.newPolicy(1, "alice")))
	s.Require().NoError(s.store.PutPolicy(s.ctx, s.newPolicy(2, "alice")))

	s.Require().NoError(s.store.AppendHolderPolicy(s.ctx, "alice", 2))
	s.Require().NoError(s.store.AppendHolderPolicy(s.ctx, "alice", 1))

	ids, err := s.store.HolderPolicies(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal([]id.PolicyID{2, 1}, ids, "insertion order, not id order")

	empty, err := s.store.HolderPolicies(s.ctx, "nobody")
	s.Require().NoError(err)
	s.Empty(empty)
}

func (s *PostgresStoreSuite) TestInsurerFlags() {
	authorized, err := s.store.InsurerAuthorized(s.ctx, "acme")
	s.Require().NoError(err)
	s.False(authorized)

	s.Require().NoError(s.store.SetInsurerAuthorized(s.ctx, "acme", true))
	authorized, err = s.store.InsurerAuthorized(s.ctx, "acme")
	s.Require().NoError(err)
	s.True(authorized)

	s.Require().NoError(s.store.SetInsurerAuthorized(s.ctx, "acme", false))
	authorized, err = s.store.InsurerAuthorized(s.ctx, "acme")
	s.Require().NoError(err)
	s.False(authorized)
}

func (s *PostgresStoreSuite) TestPremiumsReceived() {
	total, err := s.store.PremiumsReceived(s.ctx)
	s.Require().NoError(err)
	s.Zero(total)

	s.Require().NoError(s.store.AddPremiumReceived(s.ctx, 100))
	s.Require().NoError(s.store.AddPremiumReceived(s.ctx, 250))

	total, err = s.store.PremiumsReceived(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(350), total)
}

func (s *PostgresStoreSuite) TestTransactionAtomicity() {
	tx, err := s.pg.DB.BeginTx(s.ctx, nil)
	s.Require().NoError(err)
	txCtx := txcontext.WithTx(s.ctx, tx)

	s.Require().NoError(s.store.PutPolicy(txCtx, s.newPolicy(1, "alice")))
	s.Require().NoError(s.store.AppendHolderPolicy(txCtx, "alice", 1))
	s.Require().NoError(tx.Rollback())

	_, err = s.store.Policy(s.ctx, 1)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	ids, err := s.store.HolderPolicies(s.ctx, "alice")
	s.Require().NoError(err)
	s.Empty(ids)
}
