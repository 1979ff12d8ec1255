// Package audit captures the ledger's domain events. Events are appended
// through a Store so sinks can be swapped: an in-memory sink for tests and
// development, or the transactional outbox (store/postgres) whose rows the
// relay publishes to Kafka after commit.
package audit

import (
	"context"
	"time"

	id "coverbook/pkg/domain"
)

// Action names the domain event being recorded.
type Action string

const (
	ActionInsurerAuthorized Action = "insurer_authorized"
	ActionInsurerRevoked    Action = "insurer_revoked"
	ActionPolicyIssued      Action = "policy_issued"
	ActionPremiumPaid       Action = "premium_paid"
	ActionClaimSubmitted    Action = "claim_submitted"
	ActionClaimApproved     Action = "claim_approved"
	ActionClaimPaid         Action = "claim_paid"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	// Actor is the principal that performed the operation.
	Actor id.Principal
	// Holder is the policy holder the event concerns, when applicable.
	Holder    id.Principal
	Action    Action
	PolicyID  id.PolicyID
	ClaimID   id.ClaimID
	Amount    int64
	Reason    string
	RequestID string
}

// Store persists events. Implementations must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByHolder(ctx context.Context, holder id.Principal) ([]Event, error)
}

// Publisher captures structured domain events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
//
// When the store is the Postgres outbox and the context carries the
// operation's SQL transaction, the event commits atomically with the state
// mutation: it becomes visible to downstream consumers exactly once, and only
// if the operation succeeded.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return p.store.Append(ctx, event)
}

func (p *Publisher) List(ctx context.Context, holder id.Principal) ([]Event, error) {
	return p.store.ListByHolder(ctx, holder)
}
