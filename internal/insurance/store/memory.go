package store

import (
	"context"
	"sync"

	"coverbook/internal/insurance/models"
	id "coverbook/pkg/domain"
)

// InMemoryStore keeps the whole ledger in process memory. It backs tests and
// single-node deployments without Postgres; it intentionally favors clarity
// over performance.
type InMemoryStore struct {
	mu sync.RWMutex

	policies map[id.PolicyID]models.Policy
	claims   map[id.ClaimID]models.Claim

	holderPolicies map[id.Principal][]id.PolicyID
	holderClaims   map[id.Principal][]id.ClaimID

	insurers map[id.Principal]bool

	nextPolicyID uint64
	nextClaimID  uint64

	premiumsReceived int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		policies:       make(map[id.PolicyID]models.Policy),
		claims:         make(map[id.ClaimID]models.Claim),
		holderPolicies: make(map[id.Principal][]id.PolicyID),
		holderClaims:   make(map[id.Principal][]id.ClaimID),
		insurers:       make(map[id.Principal]bool),
	}
}

func (s *InMemoryStore) Policy(_ context.Context, policyID id.PolicyID) (*models.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.policies[policyID]; ok {
		return &p, nil
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) PutPolicy(_ context.Context, policy *models.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[policy.ID] = *policy
	return nil
}

func (s *InMemoryStore) Claim(_ context.Context, claimID id.ClaimID) (*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.claims[claimID]; ok {
		return &c, nil
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) PutClaim(_ context.Context, claim *models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims[claim.ID] = *claim
	return nil
}

func (s *InMemoryStore) AppendHolderPolicy(_ context.Context, holder id.Principal, policyID id.PolicyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holderPolicies[holder] = append(s.holderPolicies[holder], policyID)
	return nil
}

func (s *InMemoryStore) AppendHolderClaim(_ context.Context, holder id.Principal, claimID id.ClaimID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holderClaims[holder] = append(s.holderClaims[holder], claimID)
	return nil
}

func (s *InMemoryStore) HolderPolicies(_ context.Context, holder id.Principal) ([]id.PolicyID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]id.PolicyID{}, s.holderPolicies[holder]...), nil
}

func (s *InMemoryStore) HolderClaims(_ context.Context, holder id.Principal) ([]id.ClaimID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]id.ClaimID{}, s.holderClaims[holder]...), nil
}

func (s *InMemoryStore) InsurerAuthorized(_ context.Context, insurer id.Principal) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.insurers[insurer], nil
}

func (s *InMemoryStore) SetInsurerAuthorized(_ context.Context, insurer id.Principal, authorized bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insurers[insurer] = authorized
	return nil
}

func (s *InMemoryStore) NextPolicyID(_ context.Context) (id.PolicyID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPolicyID++
	return id.PolicyID(s.nextPolicyID), nil
}

func (s *InMemoryStore) NextClaimID(_ context.Context) (id.ClaimID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextClaimID++
	return id.ClaimID(s.nextClaimID), nil
}

func (s *InMemoryStore) AddPremiumReceived(_ context.Context, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.premiumsReceived += amount
	return nil
}

func (s *InMemoryStore) PremiumsReceived(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.premiumsReceived, nil
}
