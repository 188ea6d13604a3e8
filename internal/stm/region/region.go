// Package region wires the segmented address space, the dual-copy word
// store, the access controller, and the batcher into the complete
// transactional-memory engine: the tm_create/tm_begin/tm_read/... operation
// set of the engine's external interface.
package region

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/kolkov/stm/internal/stm/addr"
	"github.com/kolkov/stm/internal/stm/batcher"
	"github.com/kolkov/stm/internal/stm/txn"
	"github.com/kolkov/stm/internal/stm/wordstore"
)

// Tx is an opaque transaction handle. The zero value is never a valid
// handle produced by Begin; compare against InvalidTx.
type Tx struct {
	id int64
	rw *txn.Transaction // nil for read-only transactions
}

// InvalidTx is returned by Begin on failure.
var InvalidTx = Tx{id: txn.InvalidTxID}

// ID returns the transaction's unique id, or txn.ReadOnlyTxID for every
// read-only transaction.
func (t Tx) ID() int64 { return t.id }

// IsReadOnly reports whether t is a read-only transaction handle.
func (t Tx) IsReadOnly() bool { return t.rw == nil && t.id != txn.InvalidTxID }

// IsValid reports whether t was produced by a successful Begin.
func (t Tx) IsValid() bool { return t.id != txn.InvalidTxID }

// AllocStatus is the outcome of an Alloc call.
type AllocStatus int

const (
	// AllocSuccess means the returned address is the start of a fresh segment.
	AllocSuccess AllocStatus = iota
	// AllocNoMem means the segment table is full or allocation failed; the
	// transaction may continue.
	AllocNoMem
	// AllocAbort means the transaction was already aborted before the
	// call; the transaction must not continue.
	AllocAbort
)

// Option configures a Region at creation time.
type Option func(*Region)

// WithLogger attaches a structured logger to the region's batcher. A nil
// logger (the default) disables logging entirely.
func WithLogger(log *zap.Logger) Option {
	return func(r *Region) { r.log = log }
}

// Region owns every segment, the shared commit/rollback logs, and the
// batcher for one transactional memory instance.
type Region struct {
	align uint64

	table   wordstore.Table
	tableMu sync.Mutex // guards the rare linear-scan slot-reuse path

	nextSeg atomic.Uint32 // next segment id to hand out via fast-path increment

	batcher *batcher.Batcher

	modMu    sync.Mutex
	modified []txn.AccessedCell

	freedMu sync.Mutex
	freed   []addr.Segment

	log *zap.Logger
}

// Create allocates and initializes a new shared memory region with one
// first, non-freeable segment of the requested size and alignment.
func Create(size, align uint64, opts ...Option) (*Region, error) {
	if err := addr.ValidateSizeAlign(size, align); err != nil {
		return nil, fmt.Errorf("region.Create: %w: %w", ErrInvalidSizeAlign, err)
	}

	r := &Region{align: align}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	r.batcher = batcher.New(r.log)

	r.table.Set(0, wordstore.NewSegment(size, align))
	r.nextSeg.Store(1)

	return r, nil
}

// Destroy releases every still-allocated segment, including ones a caller
// never freed — mirroring the original implementation's tm_destroy, which
// walks the whole segment table rather than assuming the caller already
// freed everything. The region must have no live transactions.
func (r *Region) Destroy() error {
	if r.batcher.Remaining() != 0 {
		return ErrLiveTransactions
	}
	for i := 0; i < addr.MaxSegments; i++ {
		r.table.Set(addr.Segment(i), nil)
	}
	return nil
}

// Start returns the start address of the region's initial segment.
func (r *Region) Start() uint64 {
	return addr.Encode(0, 0)
}

// Size returns the byte size of the region's initial segment.
func (r *Region) Size() uint64 {
	return r.table.Get(0).Size()
}

// Align returns the alignment shared by every access on this region.
func (r *Region) Align() uint64 {
	return r.align
}

// Begin starts a new transaction. Read-only transactions never allocate
// bookkeeping state; they are represented by the shared ReadOnlyTxID
// sentinel and bypass the access controller entirely.
func (r *Region) Begin(readOnly bool) (Tx, error) {
	if readOnly {
		r.batcher.Enter()
		return Tx{id: txn.ReadOnlyTxID}, nil
	}

	id := r.batcher.NextTxID()
	t := txn.New(id)
	r.batcher.Enter()
	return Tx{id: id, rw: t}, nil
}

// End ends tx, committing its effects if it never aborted, or rolling them
// back if it did. It reports whether the transaction committed.
func (r *Region) End(tx Tx) bool {
	if tx.IsReadOnly() {
		r.batcher.Leave(r.commit)
		return true
	}

	t := tx.rw
	if t.Aborted() {
		r.rollback(t)
		r.batcher.Leave(r.commit)
		return false
	}

	if len(t.Freed) > 0 {
		r.freedMu.Lock()
		r.freed = append(r.freed, t.Freed...)
		r.freedMu.Unlock()
	}
	if len(t.Accessed) > 0 {
		r.modMu.Lock()
		r.modified = append(r.modified, t.Accessed...)
		r.modMu.Unlock()
	}

	r.batcher.Leave(r.commit)
	return true
}

// rollback undoes every effect of an aborted read-write transaction: every
// enlisted cell resets to Idle (the readable copy was never touched, so
// that alone is sufficient), and every segment it allocated this epoch is
// released immediately rather than deferred to commit — it never became
// visible to anyone.
func (r *Region) rollback(t *txn.Transaction) {
	for _, ac := range t.Accessed {
		ac.Cell.Reset()
	}
	for _, seg := range t.Allocated {
		r.releaseSegment(seg)
	}
}
