// Package postgres implements audit.Store using the transactional outbox
// pattern. Events are written to the outbox table inside the caller's SQL
// transaction and published to Kafka by the relay worker, so an event becomes
// observable exactly when its operation commits.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	id "coverbook/pkg/domain"
	audit "coverbook/pkg/platform/audit"
	txcontext "coverbook/pkg/platform/tx"

	"github.com/google/uuid"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type dbQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) querier(ctx context.Context) dbQuerier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// outboxPayload is the JSON structure published to Kafka. Field names match
// audit.Event for deserialization by downstream consumers.
type outboxPayload struct {
	ID        string `json:"ID"`
	Timestamp string `json:"Timestamp"`
	Actor     string `json:"Actor"`
	Holder    string `json:"Holder,omitempty"`
	Action    string `json:"Action"`
	PolicyID  uint64 `json:"PolicyID,omitempty"`
	ClaimID   uint64 `json:"ClaimID,omitempty"`
	Amount    int64  `json:"Amount,omitempty"`
	Reason    string `json:"Reason,omitempty"`
	RequestID string `json:"RequestID,omitempty"`
}

// Append writes an event to the outbox table for later Kafka publishing.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()

	payload := outboxPayload{
		ID:        eventID.String(),
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		Actor:     event.Actor.String(),
		Holder:    event.Holder.String(),
		Action:    string(event.Action),
		PolicyID:  uint64(event.PolicyID),
		ClaimID:   uint64(event.ClaimID),
		Amount:    event.Amount,
		Reason:    event.Reason,
		RequestID: event.RequestID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}

	_, err = s.execer(ctx).ExecContext(ctx, `
		INSERT INTO audit_outbox (id, holder, action, occurred_at, payload)
		VALUES ($1, $2, $3, $4, $5)`,
		eventID, event.Holder.String(), string(event.Action), event.Timestamp, body,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// ListByHolder returns committed events for a holder, oldest first.
func (s *Store) ListByHolder(ctx context.Context, holder id.Principal) ([]audit.Event, error) {
	rows, err := s.querier(ctx).QueryContext(ctx, `
		SELECT payload FROM audit_outbox
		WHERE holder = $1
		ORDER BY occurred_at ASC`,
		holder.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event, err := decodePayload(body)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// PendingEntry is an unpublished outbox row awaiting relay to Kafka.
type PendingEntry struct {
	ID      uuid.UUID
	Action  string
	Payload []byte
}

// Pending returns up to limit unpublished entries, oldest first.
func (s *Store) Pending(ctx context.Context, limit int) ([]PendingEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, payload FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY occurred_at ASC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query pending outbox: %w", err)
	}
	defer rows.Close()

	var entries []PendingEntry
	for rows.Next() {
		var e PendingEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MarkPublished stamps an outbox entry as relayed. Idempotent.
func (s *Store) MarkPublished(ctx context.Context, entryID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE audit_outbox SET published_at = $1
		WHERE id = $2 AND published_at IS NULL`,
		time.Now(), entryID,
	)
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

func decodePayload(body []byte) (audit.Event, error) {
	var p outboxPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return audit.Event{}, fmt.Errorf("decode audit event: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, p.Timestamp)
	if err != nil {
		return audit.Event{}, fmt.Errorf("decode audit timestamp: %w", err)
	}
	return audit.Event{
		Timestamp: ts,
		Actor:     id.Principal(p.Actor),
		Holder:    id.Principal(p.Holder),
		Action:    audit.Action(p.Action),
		PolicyID:  id.PolicyID(p.PolicyID),
		ClaimID:   id.ClaimID(p.ClaimID),
		Amount:    p.Amount,
		Reason:    p.Reason,
		RequestID: p.RequestID,
	}, nil
}
