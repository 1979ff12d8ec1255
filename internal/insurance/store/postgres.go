package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"coverbook/internal/insurance/models"
	id "coverbook/pkg/domain"
	txcontext "coverbook/pkg/platform/tx"
)

// PostgresStore persists the ledger in PostgreSQL. When the context carries a
// SQL transaction (pkg/platform/tx) every statement joins it, and record
// reads take row locks so an operation's read-modify-write sequence cannot
// interleave with a concurrent mutation of the same policy or claim.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbHandle interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// handle returns the transaction from context when present, and reports
// whether one was found so reads can add FOR UPDATE inside transactions.
func (s *PostgresStore) handle(ctx context.Context) (dbHandle, bool) {
	if tx, ok := txcontext.From(ctx); ok {
		return tx, true
	}
	return s.db, false
}

func (s *PostgresStore) Policy(ctx context.Context, policyID id.PolicyID) (*models.Policy, error) {
	h, inTx := s.handle(ctx)
	query := `
		SELECT id, holder, premium_amount, coverage_amount, start_date, end_date, duration_days, status
		FROM policies WHERE id = $1`
	if inTx {
		query += " FOR UPDATE"
	}

	var p models.Policy
	var rawID uint64
	err := h.QueryRowContext(ctx, query, uint64(policyID)).Scan(
		&rawID, &p.Holder, &p.PremiumAmount, &p.CoverageAmount,
		&p.StartDate, &p.EndDate, &p.DurationDays, &p.Status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find policy: %w", err)
	}
	p.ID = id.PolicyID(rawID)
	return &p, nil
}

func (s *PostgresStore) PutPolicy(ctx context.Context, policy *models.Policy) error {
	h, _ := s.handle(ctx)
	_, err := h.ExecContext(ctx, `
		INSERT INTO policies (id, holder, premium_amount, coverage_amount, start_date, end_date, duration_days, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status`,
		uint64(policy.ID), policy.Holder.String(), policy.PremiumAmount, policy.CoverageAmount,
		policy.StartDate, policy.EndDate, policy.DurationDays, policy.Status.String(),
	)
	if err != nil {
		return fmt.Errorf("put policy: %w", err)
	}
	return nil
}

func (s *PostgresStore) Claim(ctx context.Context, claimID id.ClaimID) (*models.Claim, error) {
	h, inTx := s.handle(ctx)
	query := `SELECT id, policy_id, amount, reason, settled FROM claims WHERE id = $1`
	if inTx {
		query += " FOR UPDATE"
	}

	var c models.Claim
	var rawID, rawPolicyID uint64
	err := h.QueryRowContext(ctx, query, uint64(claimID)).Scan(
		&rawID, &rawPolicyID, &c.Amount, &c.Reason, &c.Settled,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find claim: %w", err)
	}
	c.ID = id.ClaimID(rawID)
	c.PolicyID = id.PolicyID(rawPolicyID)
	return &c, nil
}

func (s *PostgresStore) PutClaim(ctx context.Context, claim *models.Claim) error {
	h, _ := s.handle(ctx)
	_, err := h.ExecContext(ctx, `
		INSERT INTO claims (id, policy_id, amount, reason, settled)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET settled = EXCLUDED.settled`,
		uint64(claim.ID), uint64(claim.PolicyID), claim.Amount, claim.Reason, claim.Settled,
	)
	if err != nil {
		return fmt.Errorf("put claim: %w", err)
	}
	return nil
}

func (s *PostgresStore) AppendHolderPolicy(ctx context.Context, holder id.Principal, policyID id.PolicyID) error {
	h, _ := s.handle(ctx)
	_, err := h.ExecContext(ctx,
		`INSERT INTO holder_policies (holder, policy_id) VALUES ($1, $2)`,
		holder.String(), uint64(policyID),
	)
	if err != nil {
		return fmt.Errorf("append holder policy: %w", err)
	}
	return nil
}

func (s *PostgresStore) AppendHolderClaim(ctx context.Context, holder id.Principal, claimID id.ClaimID) error {
	h, _ := s.handle(ctx)
	_, err := h.ExecContext(ctx,
		`INSERT INTO holder_claims (holder, claim_id) VALUES ($1, $2)`,
		holder.String(), uint64(claimID),
	)
	if err != nil {
		return fmt.Errorf("append holder claim: %w", err)
	}
	return nil
}

func (s *PostgresStore) HolderPolicies(ctx context.Context, holder id.Principal) ([]id.PolicyID, error) {
	h, _ := s.handle(ctx)
	rows, err := h.QueryContext(ctx,
		`SELECT policy_id FROM holder_policies WHERE holder = $1 ORDER BY seq ASC`,
		holder.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list holder policies: %w", err)
	}
	defer rows.Close()

	var ids []id.PolicyID
	for rows.Next() {
		var raw uint64
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan holder policy: %w", err)
		}
		ids = append(ids, id.PolicyID(raw))
	}
	return ids, rows.Err()
}

func (s *PostgresStore) HolderClaims(ctx context.Context, holder id.Principal) ([]id.ClaimID, error) {
	h, _ := s.handle(ctx)
	rows, err := h.QueryContext(ctx,
		`SELECT claim_id FROM holder_claims WHERE holder = $1 ORDER BY seq ASC`,
		holder.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list holder claims: %w", err)
	}
	defer rows.Close()

	var ids []id.ClaimID
	for rows.Next() {
		var raw uint64
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan holder claim: %w", err)
		}
		ids = append(ids, id.ClaimID(raw))
	}
	return ids, rows.Err()
}

func (s *PostgresStore) InsurerAuthorized(ctx context.Context, insurer id.Principal) (bool, error) {
	h, _ := s.handle(ctx)
	var authorized bool
	err := h.QueryRowContext(ctx,
		`SELECT authorized FROM insurers WHERE principal = $1`,
		insurer.String(),
	).Scan(&authorized)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("find insurer flag: %w", err)
	}
	return authorized, nil
}

func (s *PostgresStore) SetInsurerAuthorized(ctx context.Context, insurer id.Principal, authorized bool) error {
	h, _ := s.handle(ctx)
	_, err := h.ExecContext(ctx, `
		INSERT INTO insurers (principal, authorized) VALUES ($1, $2)
		ON CONFLICT (principal) DO UPDATE SET authorized = EXCLUDED.authorized`,
		insurer.String(), authorized,
	)
	if err != nil {
		return fmt.Errorf("set insurer flag: %w", err)
	}
	return nil
}

// nextCounter bumps a counters row and returns the new value. Inside a
// transaction the row lock serializes allocations and a rollback returns the
// value, so failed operations consume no id.
func (s *PostgresStore) nextCounter(ctx context.Context, name string) (uint64, error) {
	h, _ := s.handle(ctx)
	var value uint64
	err := h.QueryRowContext(ctx,
		`UPDATE counters SET value = value + 1 WHERE name = $1 RETURNING value`,
		name,
	).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("allocate %s: %w", name, err)
	}
	return value, nil
}

func (s *PostgresStore) NextPolicyID(ctx context.Context) (id.PolicyID, error) {
	v, err := s.nextCounter(ctx, "policy_id")
	return id.PolicyID(v), err
}

func (s *PostgresStore) NextClaimID(ctx context.Context) (id.ClaimID, error) {
	v, err := s.nextCounter(ctx, "claim_id")
	return id.ClaimID(v), err
}

func (s *PostgresStore) AddPremiumReceived(ctx context.Context, amount int64) error {
	h, _ := s.handle(ctx)
	_, err := h.ExecContext(ctx,
		`UPDATE counters SET value = value + $1 WHERE name = 'premiums_received'`,
		amount,
	)
	if err != nil {
		return fmt.Errorf("add premium received: %w", err)
	}
	return nil
}

func (s *PostgresStore) PremiumsReceived(ctx context.Context) (int64, error) {
	h, _ := s.handle(ctx)
	var total int64
	err := h.QueryRowContext(ctx,
		`SELECT value FROM counters WHERE name = 'premiums_received'`,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("read premiums received: %w", err)
	}
	return total, nil
}
