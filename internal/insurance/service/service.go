// Package service implements the insurance registry: the policy and claim
// state machine with role-gated mutation. Every public operation
// authenticates the caller, loads records through the ledger store, validates
// preconditions, applies the transition, and commits — all inside one
// RegistryTx unit. No operation partially applies its effects.
package service

import (
	"context"
	"log/slog"

	"coverbook/internal/insurance/metrics"
	"coverbook/internal/insurance/models"
	"coverbook/internal/insurance/store"
	id "coverbook/pkg/domain"
	dErrors "coverbook/pkg/domain-errors"
	"coverbook/pkg/platform/audit"
	"coverbook/pkg/requestcontext"
)

// AuditPublisher records domain events. Emission happens inside the
// operation's transaction; with the Postgres outbox this makes the event
// atomic with the state mutation.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// InsurerCache is an optional read cache for insurer authorization flags.
// The ledger store stays authoritative; mutations write through.
type InsurerCache interface {
	Get(ctx context.Context, insurer id.Principal) (authorized bool, found bool, err error)
	Set(ctx context.Context, insurer id.Principal, authorized bool) error
}

// Registry orchestrates policy and claim lifecycle operations.
type Registry struct {
	store store.Store
	tx    RegistryTx
	owner id.Principal

	logger       *slog.Logger
	auditor      AuditPublisher
	metrics      *metrics.Metrics
	insurerCache InsurerCache
}

type Option func(r *Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(r *Registry) { r.auditor = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

func WithInsurerCache(c InsurerCache) Option {
	return func(r *Registry) { r.insurerCache = c }
}

// New constructs a Registry. owner is the single principal allowed to manage
// the authorized-insurer set; it is fixed for the Registry's lifetime.
func New(ledger store.Store, tx RegistryTx, owner id.Principal, opts ...Option) *Registry {
	r := &Registry{
		store:  ledger,
		tx:     tx,
		owner:  owner,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AuthorizeInsurer grants insurer rights to a principal. Owner only.
// Idempotent.
func (r *Registry) AuthorizeInsurer(ctx context.Context, caller, insurer id.Principal) error {
	return r.setInsurer(ctx, caller, insurer, true, audit.ActionInsurerAuthorized, "authorize_insurer")
}

// RevokeInsurer removes insurer rights. Owner only. Idempotent even when the
// flag is already false.
func (r *Registry) RevokeInsurer(ctx context.Context, caller, insurer id.Principal) error {
	return r.setInsurer(ctx, caller, insurer, false, audit.ActionInsurerRevoked, "revoke_insurer")
}

func (r *Registry) setInsurer(ctx context.Context, caller, insurer id.Principal, authorized bool, action audit.Action, op string) error {
	if caller != r.owner {
		return r.fail(op, dErrors.New(dErrors.CodeUnauthorized, "only the owner manages insurers"))
	}
	if insurer.IsZero() {
		return r.fail(op, dErrors.New(dErrors.CodeInvalidArgument, "insurer principal is required"))
	}

	err := r.tx.RunInTx(ctx, insurer.String(), func(ctx context.Context) error {
		if err := r.store.SetInsurerAuthorized(ctx, insurer, authorized); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "update insurer flag")
		}
		return r.emit(ctx, audit.Event{
			Timestamp: requestcontext.Now(ctx),
			Actor:     caller,
			Holder:    insurer,
			Action:    action,
			RequestID: requestcontext.RequestID(ctx),
		})
	})
	if err != nil {
		return r.fail(op, err)
	}

	// Write through so cached reads see the change immediately.
	if r.insurerCache != nil {
		if cacheErr := r.insurerCache.Set(ctx, insurer, authorized); cacheErr != nil {
			r.logger.WarnContext(ctx, "insurer cache write failed", "error", cacheErr)
		}
	}

	r.logger.InfoContext(ctx, "insurer flag updated",
		"insurer", insurer.String(),
		"authorized", authorized,
	)
	return nil
}

// IsAuthorizedInsurer reports the current insurer flag. Unknown principals
// are not authorized.
func (r *Registry) IsAuthorizedInsurer(ctx context.Context, insurer id.Principal) (bool, error) {
	if r.insurerCache != nil {
		if authorized, found, err := r.insurerCache.Get(ctx, insurer); err == nil && found {
			return authorized, nil
		} else if err != nil {
			r.logger.WarnContext(ctx, "insurer cache read failed", "error", err)
		}
	}

	authorized, err := r.store.InsurerAuthorized(ctx, insurer)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "read insurer flag")
	}
	if r.insurerCache != nil {
		if cacheErr := r.insurerCache.Set(ctx, insurer, authorized); cacheErr != nil {
			r.logger.WarnContext(ctx, "insurer cache write failed", "error", cacheErr)
		}
	}
	return authorized, nil
}

// requireInsurer gates mutations on the authoritative store flag, never the
// cache, so a revocation takes effect immediately.
func (r *Registry) requireInsurer(ctx context.Context, caller id.Principal) error {
	authorized, err := r.store.InsurerAuthorized(ctx, caller)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "read insurer flag")
	}
	if !authorized {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not an authorized insurer")
	}
	return nil
}

// IssuePolicy creates a new Active policy for holder and returns its id.
// Caller must be an authorized insurer. This is the only way a policy comes
// into existence; policies are never deleted.
func (r *Registry) IssuePolicy(ctx context.Context, caller, holder id.Principal, premium, coverage, durationDays int64) (id.PolicyID, error) {
	const op = "issue_policy"

	if err := r.requireInsurer(ctx, caller); err != nil {
		return 0, r.fail(op, err)
	}
	if err := models.ValidateIssuance(holder, premium, coverage, durationDays); err != nil {
		return 0, r.fail(op, err)
	}

	var policyID id.PolicyID
	err := r.tx.RunInTx(ctx, "issue:"+holder.String(), func(ctx context.Context) error {
		allocated, err := r.store.NextPolicyID(ctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "allocate policy id")
		}

		policy, err := models.NewPolicy(allocated, holder, premium, coverage, durationDays, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		if err := r.store.PutPolicy(ctx, policy); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "persist policy")
		}
		if err := r.store.AppendHolderPolicy(ctx, holder, policy.ID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "index policy")
		}

		policyID = policy.ID
		return r.emit(ctx, audit.Event{
			Timestamp: requestcontext.Now(ctx),
			Actor:     caller,
			Holder:    holder,
			Action:    audit.ActionPolicyIssued,
			PolicyID:  policy.ID,
			Amount:    coverage,
			RequestID: requestcontext.RequestID(ctx),
		})
	})
	if err != nil {
		return 0, r.fail(op, err)
	}

	if r.metrics != nil {
		r.metrics.PoliciesIssued.Inc()
	}
	r.logger.InfoContext(ctx, "policy issued",
		"policy_id", policyID.String(),
		"holder", holder.String(),
		"insurer", caller.String(),
	)
	return policyID, nil
}

// PayPremium records a premium payment by the holder. The payment must equal
// the premium amount exactly; repeat payments while PremiumPaid succeed and
// leave the status unchanged.
func (r *Registry) PayPremium(ctx context.Context, caller id.Principal, policyID id.PolicyID, amount int64) error {
	const op = "pay_premium"

	err := r.tx.RunInTx(ctx, policyID.String(), func(ctx context.Context) error {
		policy, err := r.loadPolicy(ctx, policyID)
		if err != nil {
			return err
		}
		if policy.Holder != caller {
			return dErrors.New(dErrors.CodeUnauthorized, "only the policy holder may pay the premium")
		}
		if err := policy.CanPayPremium(amount); err != nil {
			return err
		}

		policy.ApplyPremiumPaid()
		if err := r.store.PutPolicy(ctx, policy); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "persist policy")
		}
		if err := r.store.AddPremiumReceived(ctx, amount); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "accumulate premium")
		}
		return r.emit(ctx, audit.Event{
			Timestamp: requestcontext.Now(ctx),
			Actor:     caller,
			Holder:    policy.Holder,
			Action:    audit.ActionPremiumPaid,
			PolicyID:  policy.ID,
			Amount:    amount,
			RequestID: requestcontext.RequestID(ctx),
		})
	})
	if err != nil {
		return r.fail(op, err)
	}

	if r.metrics != nil {
		r.metrics.PremiumPayments.Inc()
		r.metrics.PremiumVolume.Add(float64(amount))
	}
	return nil
}

// SubmitClaim files a claim against the caller's policy and returns the new
// claim id. The policy moves to UnderClaim, which blocks further submissions
// until the claim is resolved.
func (r *Registry) SubmitClaim(ctx context.Context, caller id.Principal, policyID id.PolicyID, amount int64, reason string) (id.ClaimID, error) {
	const op = "submit_claim"

	var claimID id.ClaimID
	err := r.tx.RunInTx(ctx, policyID.String(), func(ctx context.Context) error {
		policy, err := r.loadPolicy(ctx, policyID)
		if err != nil {
			return err
		}
		if policy.Holder != caller {
			return dErrors.New(dErrors.CodeUnauthorized, "only the policy holder may file a claim")
		}
		if err := policy.CanSubmitClaim(amount, requestcontext.Now(ctx)); err != nil {
			return err
		}

		allocated, err := r.store.NextClaimID(ctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "allocate claim id")
		}
		claim, err := models.NewClaim(allocated, policy.ID, amount, reason)
		if err != nil {
			return err
		}

		policy.ApplyUnderClaim()
		if err := r.store.PutPolicy(ctx, policy); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "persist policy")
		}
		if err := r.store.PutClaim(ctx, claim); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "persist claim")
		}
		if err := r.store.AppendHolderClaim(ctx, caller, claim.ID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "index claim")
		}

		claimID = claim.ID
		return r.emit(ctx, audit.Event{
			Timestamp: requestcontext.Now(ctx),
			Actor:     caller,
			Holder:    policy.Holder,
			Action:    audit.ActionClaimSubmitted,
			PolicyID:  policy.ID,
			ClaimID:   claim.ID,
			Amount:    amount,
			Reason:    reason,
			RequestID: requestcontext.RequestID(ctx),
		})
	})
	if err != nil {
		return 0, r.fail(op, err)
	}

	if r.metrics != nil {
		r.metrics.ClaimsSubmitted.Inc()
	}
	r.logger.InfoContext(ctx, "claim submitted",
		"claim_id", claimID.String(),
		"policy_id", policyID.String(),
	)
	return claimID, nil
}

// ApproveClaim moves a claim's policy from UnderClaim to ClaimApproved.
// Caller must be an authorized insurer. The claim itself stays unsettled.
func (r *Registry) ApproveClaim(ctx context.Context, caller id.Principal, claimID id.ClaimID) error {
	const op = "approve_claim"

	err := r.adjudicate(ctx, caller, claimID, func(ctx context.Context, policy *models.Policy, claim *models.Claim) error {
		if err := policy.CanApproveClaim(); err != nil {
			return err
		}
		if err := claim.CanSettle(); err != nil {
			return err
		}
		policy.ApplyClaimApproved()
		if err := r.store.PutPolicy(ctx, policy); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "persist policy")
		}
		return r.emit(ctx, audit.Event{
			Timestamp: requestcontext.Now(ctx),
			Actor:     caller,
			Holder:    policy.Holder,
			Action:    audit.ActionClaimApproved,
			PolicyID:  policy.ID,
			ClaimID:   claim.ID,
			Amount:    claim.Amount,
			RequestID: requestcontext.RequestID(ctx),
		})
	})
	if err != nil {
		return r.fail(op, err)
	}

	if r.metrics != nil {
		r.metrics.ClaimsApproved.Inc()
	}
	return nil
}

// PayClaim settles an approved claim: the claim is marked settled and the
// policy closes as ClaimSettled, in one transaction. Settlement is a
// bookkeeping event; no funds move here.
func (r *Registry) PayClaim(ctx context.Context, caller id.Principal, claimID id.ClaimID) error {
	const op = "pay_claim"

	err := r.adjudicate(ctx, caller, claimID, func(ctx context.Context, policy *models.Policy, claim *models.Claim) error {
		if err := policy.CanSettleClaim(); err != nil {
			return err
		}
		if err := claim.CanSettle(); err != nil {
			return err
		}
		claim.ApplySettled()
		policy.ApplyClaimSettled()
		if err := r.store.PutClaim(ctx, claim); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "persist claim")
		}
		if err := r.store.PutPolicy(ctx, policy); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "persist policy")
		}
		return r.emit(ctx, audit.Event{
			Timestamp: requestcontext.Now(ctx),
			Actor:     caller,
			Holder:    policy.Holder,
			Action:    audit.ActionClaimPaid,
			PolicyID:  policy.ID,
			ClaimID:   claim.ID,
			Amount:    claim.Amount,
			RequestID: requestcontext.RequestID(ctx),
		})
	})
	if err != nil {
		return r.fail(op, err)
	}

	if r.metrics != nil {
		r.metrics.ClaimsSettled.Inc()
	}
	return nil
}

// adjudicate runs an insurer-only operation over a claim and its policy.
// The pre-read learns the policy id so the transaction locks by policy; both
// records are reloaded and validated under the lock.
func (r *Registry) adjudicate(ctx context.Context, caller id.Principal, claimID id.ClaimID, fn func(ctx context.Context, policy *models.Policy, claim *models.Claim) error) error {
	if err := r.requireInsurer(ctx, caller); err != nil {
		return err
	}

	pre, err := r.loadClaim(ctx, claimID)
	if err != nil {
		return err
	}

	return r.tx.RunInTx(ctx, pre.PolicyID.String(), func(ctx context.Context) error {
		claim, err := r.loadClaim(ctx, claimID)
		if err != nil {
			return err
		}
		policy, err := r.loadPolicy(ctx, claim.PolicyID)
		if err != nil {
			return err
		}
		return fn(ctx, policy, claim)
	})
}

// UserPolicies returns the ids of policies held by user, in issuance order.
func (r *Registry) UserPolicies(ctx context.Context, user id.Principal) ([]id.PolicyID, error) {
	ids, err := r.store.HolderPolicies(ctx, user)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list holder policies")
	}
	return ids, nil
}

// UserClaims returns the ids of claims filed by user, in submission order.
func (r *Registry) UserClaims(ctx context.Context, user id.Principal) ([]id.ClaimID, error) {
	ids, err := r.store.HolderClaims(ctx, user)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list holder claims")
	}
	return ids, nil
}

// Policy returns one policy record.
func (r *Registry) Policy(ctx context.Context, policyID id.PolicyID) (*models.Policy, error) {
	return r.loadPolicy(ctx, policyID)
}

// Claim returns one claim record.
func (r *Registry) Claim(ctx context.Context, claimID id.ClaimID) (*models.Claim, error) {
	return r.loadClaim(ctx, claimID)
}

// PremiumsReceived returns the running total of accepted premium payments.
func (r *Registry) PremiumsReceived(ctx context.Context) (int64, error) {
	total, err := r.store.PremiumsReceived(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "read premiums received")
	}
	return total, nil
}

func (r *Registry) loadPolicy(ctx context.Context, policyID id.PolicyID) (*models.Policy, error) {
	policy, err := r.store.Policy(ctx, policyID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "policy not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load policy")
	}
	return policy, nil
}

func (r *Registry) loadClaim(ctx context.Context, claimID id.ClaimID) (*models.Claim, error) {
	claim, err := r.store.Claim(ctx, claimID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "claim not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load claim")
	}
	return claim, nil
}

// emit records a domain event inside the operation's transaction. A failed
// append fails the operation: the event and the mutation commit or roll back
// together.
func (r *Registry) emit(ctx context.Context, event audit.Event) error {
	if r.auditor == nil {
		return nil
	}
	if err := r.auditor.Emit(ctx, event); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "record event")
	}
	return nil
}

func (r *Registry) fail(op string, err error) error {
	if r.metrics != nil {
		r.metrics.IncFailure(op, string(dErrors.CodeOf(err)))
	}
	return err
}
