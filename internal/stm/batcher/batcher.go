// Package batcher implements the epoch synchroniser that groups concurrent
// transactions into batches and serialises commit at batch boundaries.
//
// The pattern — a counter guarded by a mutex, with arriving goroutines
// parking on a broadcast condition variable until a barrier lowers — is the
// same shape an intention lock uses to gate incompatible lock-state
// transitions; here the two states in question are
// "inside the epoch" and "draining toward commit".
package batcher

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Batcher synchronises transactions into epochs. All transactions active
// between two consecutive commit invocations belong to the same epoch and
// commit or abort together at its end.
type Batcher struct {
	mu sync.Mutex
	c  *sync.Cond

	remaining int64 // transactions currently inside the epoch
	nBlocked  int64 // transactions currently parked in Enter
	draining  bool  // true while a batch is running and must fully leave

	epoch     atomic.Uint64
	txCounter atomic.Int64

	log *zap.Logger
}

// New creates a Batcher ready for its first epoch. A nil logger is
// replaced with a no-op logger, matching the teacher's nil-safe optional
// logger convention.
func New(log *zap.Logger) *Batcher {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Batcher{log: log}
	b.c = sync.NewCond(&b.mu)
	b.epoch.Store(1) // epoch 1, matching the original batcher's "starts at 1"
	b.txCounter.Store(1)
	return b
}

// Epoch returns the current epoch number.
func (b *Batcher) Epoch() uint64 { return b.epoch.Load() }

// NextTxID allocates the next globally unique, strictly increasing
// transaction id (invariant I5).
func (b *Batcher) NextTxID() int64 {
	return b.txCounter.Add(1) - 1
}

// Enter admits the calling transaction into the current epoch. If the
// current epoch already has transactions inside it, the caller instead
// waits for that epoch to fully drain (every active transaction to call
// Leave) and joins the following one — this is what forms batches: a
// transaction can never join an epoch that is already in progress.
func (b *Batcher) Enter() {
	b.mu.Lock()
	if b.remaining > 0 {
		b.draining = true
		b.nBlocked++
		for b.draining {
			b.c.Wait()
		}
		b.nBlocked--
	}
	b.remaining++
	b.mu.Unlock()
}

// CommitFunc runs exactly once per epoch, with zero transactions active and
// the batcher mutex held, when the last transaction in an epoch leaves.
type CommitFunc func()

// Leave removes the calling transaction from the current epoch. If it is
// the last transaction to leave, it runs commit while still holding the
// batcher's mutex, advances the epoch, lowers the barrier, and wakes every
// goroutine parked in Enter so they can form the next batch together.
func (b *Batcher) Leave(commit CommitFunc) {
	b.mu.Lock()
	b.remaining--
	if b.remaining == 0 {
		commit()
		b.epoch.Add(1)
		b.draining = false
		b.log.Debug("epoch advanced",
			zap.Uint64("epoch", b.epoch.Load()),
			zap.Int64("woken", b.nBlocked),
		)
		b.c.Broadcast()
	}
	b.mu.Unlock()
}

// Remaining reports the number of transactions currently inside the epoch.
// Exposed for tests and the stress driver; not part of the commit protocol.
func (b *Batcher) Remaining() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remainingLocked()
}

// remainingLocked reports the number of transactions currently inside the
// epoch. The caller must already hold b.mu — in particular, a CommitFunc
// runs with b.mu held by Leave, so it must call this instead of Remaining,
// which would deadlock re-acquiring the same non-reentrant mutex.
func (b *Batcher) remainingLocked() int64 {
	return b.remaining
}
