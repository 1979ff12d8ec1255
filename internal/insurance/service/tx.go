package service

import (
	"context"
	"sync"
	"time"

	dErrors "coverbook/pkg/domain-errors"
)

// RegistryTx provides the transactional boundary for ledger mutations. Every
// state-changing operation runs its whole read-validate-write sequence inside
// RunInTx so no two operations interleave on the same policy or claim.
//
// key identifies the record family being mutated (the policy id for policy
// and claim operations, the insurer principal for insurer-set operations).
// Implementations may wrap a database transaction or, in-memory, a keyed
// lock.
type RegistryTx interface {
	RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// shardedTx provides fine-grained locking using sharded mutexes. Instead of a
// single global lock, operations are distributed across N shards based on a
// hash of the key, so operations on distinct policies proceed in parallel
// while two operations on the same policy serialize.
const numTxShards = 128

// defaultTxTimeout bounds a single ledger operation.
const defaultTxTimeout = 5 * time.Second

type shardedTx struct {
	shards  [numTxShards]sync.Mutex
	timeout time.Duration
}

// NewShardedTx returns the in-memory transactional boundary used with the
// in-memory ledger store.
func NewShardedTx() RegistryTx {
	return &shardedTx{}
}

func (t *shardedTx) RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := hashTxKey(key) % numTxShards
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	// Check again after acquiring the lock.
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(ctx)
}

// hashTxKey uses FNV-1a for even shard distribution.
func hashTxKey(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
