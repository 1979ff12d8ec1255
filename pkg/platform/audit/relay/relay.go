// Package relay drains the audit outbox into Kafka. It runs beside the HTTP
// server and is the only component that talks to the broker; domain code only
// ever writes outbox rows.
package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"coverbook/pkg/platform/audit/store/postgres"
)

const (
	defaultPollInterval = time.Second
	defaultBatchSize    = 100
)

// Relay polls the outbox for unpublished entries, produces them to Kafka,
// and marks them published. Delivery is at-least-once; consumers dedupe on
// the event ID embedded in the payload.
type Relay struct {
	outbox   *postgres.Store
	client   *kgo.Client
	topic    string
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

type Option func(*Relay)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) { r.logger = logger }
}

func WithPollInterval(d time.Duration) Option {
	return func(r *Relay) { r.interval = d }
}

func WithBatchSize(n int) Option {
	return func(r *Relay) { r.batch = n }
}

// New constructs a relay. Brokers and topic come from config; the kgo client
// is owned by the relay and closed on Run exit.
func New(outbox *postgres.Store, brokers []string, topic string, opts ...Option) (*Relay, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, err
	}
	r := &Relay{
		outbox:   outbox,
		client:   client,
		topic:    topic,
		logger:   slog.Default(),
		interval: defaultPollInterval,
		batch:    defaultBatchSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run polls until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	defer r.client.Close()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.drain(ctx); err != nil {
				// Transient broker or database trouble: log and retry on
				// the next tick rather than tearing the process down.
				r.logger.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

func (r *Relay) drain(ctx context.Context) error {
	entries, err := r.outbox.Pending(ctx, r.batch)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		record := &kgo.Record{
			Topic: r.topic,
			Key:   []byte(entry.Action),
			Value: entry.Payload,
		}
		if err := r.client.ProduceSync(ctx, record).FirstErr(); err != nil {
			return err
		}
		if err := r.outbox.MarkPublished(ctx, entry.ID); err != nil {
			return err
		}
	}
	return nil
}
