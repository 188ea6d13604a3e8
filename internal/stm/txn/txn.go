// Package txn implements per-transaction bookkeeping: the ordered logs of
// cells touched, segments allocated, and segments freed that the rollback
// pass (when an aborted transaction ends) and the commit pass (at epoch end)
// replay.
package txn

import (
	"sync/atomic"

	"github.com/kolkov/stm/internal/stm/access"
	"github.com/kolkov/stm/internal/stm/addr"
)

// Sentinel transaction ids. Real transaction ids are strictly increasing
// and start at 1 (invariant I5), so both sentinels are chosen outside that
// range rather than reusing a C-style "impossibly large uintptr" constant.
const (
	// InvalidTxID is returned by Begin on failure.
	InvalidTxID int64 = 0
	// ReadOnlyTxID is the distinguished handle for every read-only
	// transaction. Read-only transactions carry no bookkeeping state, so a
	// single shared sentinel id is sufficient — they never appear in any
	// access-control cell's owner field.
	ReadOnlyTxID int64 = -1
)

// AccessedCell names one access-control cell a read-write transaction has
// touched, enough to locate it again for rollback or commit.
type AccessedCell struct {
	Segment addr.Segment
	Word    uint64
	Cell    *access.Cell
}

// Transaction is the per-transaction bookkeeping state for a read-write
// transaction. Read-only transactions are represented solely by
// ReadOnlyTxID and never allocate a Transaction value.
type Transaction struct {
	ID int64

	aborted atomic.Bool

	// Accessed records every access-control cell enlisted this epoch, in
	// touch order, so commit/rollback can visit each exactly once.
	Accessed []AccessedCell

	// Allocated records every segment this transaction allocated this
	// epoch. On abort they are freed immediately (they never became
	// visible); on commit they simply remain in the table.
	Allocated []addr.Segment

	// Freed records every segment this transaction asked to free. Release
	// is deferred to commit so a concurrently-aborting reader of the same
	// segment is never left dangling mid-epoch.
	Freed []addr.Segment
}

// New allocates bookkeeping state for a fresh read-write transaction. The
// region calls it in Begin, once the transaction has its id; the log slices
// themselves stay nil until first use.
func New(id int64) *Transaction {
	return &Transaction{ID: id}
}

// Abort marks the transaction as aborted. Idempotent.
func (t *Transaction) Abort() {
	t.aborted.Store(true)
}

// Aborted reports whether the transaction has been marked aborted by a
// failed read or write.
func (t *Transaction) Aborted() bool {
	return t.aborted.Load()
}

// Enlist appends cell to Accessed if and only if the cell itself reports
// this is its first touch this epoch (access.Cell.MarkEnlisted), giving
// exactly-once enlistment no matter how many times the transaction reads or
// writes the same word.
func (t *Transaction) Enlist(seg addr.Segment, word uint64, cell *access.Cell) {
	if cell.MarkEnlisted() {
		t.Accessed = append(t.Accessed, AccessedCell{Segment: seg, Word: word, Cell: cell})
	}
}

// RecordAlloc appends seg to the transaction's allocated-segments log.
func (t *Transaction) RecordAlloc(seg addr.Segment) {
	t.Allocated = append(t.Allocated, seg)
}

// RecordFree appends seg to the transaction's freed-segments log.
func (t *Transaction) RecordFree(seg addr.Segment) {
	t.Freed = append(t.Freed, seg)
}
