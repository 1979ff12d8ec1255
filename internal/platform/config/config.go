package config

import (
	"os"
	"strings"
	"time"

	id "coverbook/pkg/domain"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string

	// Owner is the single principal allowed to manage the insurer set.
	// Fixed at startup, never changes while the process runs.
	Owner id.Principal

	// DatabaseURL enables the Postgres ledger store when set; otherwise the
	// in-memory store is used.
	DatabaseURL string

	// RedisURL enables the insurer-flag cache when set.
	RedisURL string

	// KafkaBrokers/KafkaTopic enable the audit outbox relay when set.
	KafkaBrokers []string
	KafkaTopic   string
}

// InsurerCacheTTL bounds staleness of cached insurer authorization flags.
// Revocations write through, so the TTL only covers out-of-band mutations.
var InsurerCacheTTL = 5 * time.Minute

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("COVERBOOK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	owner := os.Getenv("COVERBOOK_OWNER")
	if owner == "" {
		owner = "owner"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}
	topic := os.Getenv("KAFKA_AUDIT_TOPIC")
	if topic == "" {
		topic = "coverbook.audit"
	}

	return Server{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		Owner:         id.Principal(owner),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		KafkaBrokers:  brokers,
		KafkaTopic:    topic,
	}
}
