// Package access implements the per-word access-control state machine that
// lets readers and a single writer coordinate over a shared word without a
// per-word lock.
//
// Every cell is one atomic word packing a kind (Idle, ReadShared, Owned), the
// owning or first-reading transaction id, a write-occurred bit, and a
// multi-reader bit. All state transitions are a single compare-and-swap on
// that packed word, mirroring the packed-atomic state machines this engine
// is modeled on (an intention-lock's packed reader/writer counters, and a
// race detector's packed thread-id/clock epoch).
package access

import "sync/atomic"

// Kind is the access-control state of a cell.
type Kind uint8

const (
	// Idle means no transaction currently holds the cell.
	Idle Kind = iota
	// ReadShared means one or more read-only-compatible transactions have
	// read the cell without any writer claiming it.
	ReadShared
	// Owned means a single transaction holds exclusive write access.
	Owned
)

const (
	kindBits  = 2
	writeBit  = uint64(1) << 0
	multiBit  = uint64(1) << 1
	kindShift = 2
	kindMask  = uint64(1)<<kindBits - 1
	ownerShift = kindShift + kindBits
)

func pack(kind Kind, owner uint64, write, multi bool) uint64 {
	v := owner << ownerShift
	v |= uint64(kind) << kindShift
	if write {
		v |= writeBit
	}
	if multi {
		v |= multiBit
	}
	return v
}

func unpack(state uint64) (kind Kind, owner uint64, write, multi bool) {
	kind = Kind((state >> kindShift) & kindMask)
	owner = state >> ownerShift
	write = state&writeBit != 0
	multi = state&multiBit != 0
	return kind, owner, write, multi
}

// Cell is the access-control state for a single shared word. The zero value
// is a valid Idle cell.
type Cell struct {
	state atomic.Uint64

	// staged is true once this cell has been enlisted in its owning or
	// reading transaction's accessed-cells list for the current epoch.
	// Read/write paths test-and-set it so a cell touched many times by the
	// same transaction is enlisted exactly once.
	staged atomic.Bool

	// writeStaged mirrors the write bit packed into state, kept as its own
	// relaxed flag so commit can test "did this cell's owner write" without
	// unpacking state, matching the data model's description of write-staged
	// as independent per-cell bookkeeping reset at commit.
	writeStaged atomic.Bool
}

// Snapshot is a decoded, point-in-time view of a cell's packed state.
type Snapshot struct {
	Kind  Kind
	Owner int64 // owning transaction id (Owned), or first-reader id (ReadShared)
	Write bool  // Owned only: true if the owner has written this epoch
	Multi bool  // ReadShared only: true if a second reader has joined
}

// Load returns a decoded snapshot of the cell's current state.
func (c *Cell) Load() Snapshot {
	kind, owner, write, multi := unpack(c.state.Load())
	return Snapshot{Kind: kind, Owner: int64(owner), Write: write, Multi: multi}
}

// Result describes the outcome of a read attempt.
type Result struct {
	OK            bool
	FromWriteable bool // true if the caller must read its own writeable copy
}

// Read attempts to record a read of this cell by the read-write transaction
// txID. It implements the read column of the access-controller transition
// table, case by case:
//
//   - Idle -> ReadShared(first_reader=txID): the common first-touch case.
//   - ReadShared, same txID: no-op, already the recorded reader.
//   - ReadShared, different txID: joins the multi-reader state.
//   - Owned(txID): reads must come from txID's own writeable copy.
//   - Owned(other): fails; caller must abort.
func (c *Cell) Read(txID int64) Result {
	for {
		state := c.state.Load()
		kind, owner, write, _ := unpack(state)

		switch kind {
		case Owned:
			if owner != uint64(txID) {
				return Result{OK: false}
			}
			return Result{OK: true, FromWriteable: true}

		case ReadShared:
			if owner == uint64(txID) {
				return Result{OK: true}
			}
			newState := pack(ReadShared, owner, write, true)
			if c.state.CompareAndSwap(state, newState) {
				return Result{OK: true}
			}
			// Lost the race to a concurrent transition; retry with fresh state.

		case Idle:
			newState := pack(ReadShared, uint64(txID), false, false)
			if c.state.CompareAndSwap(state, newState) {
				return Result{OK: true}
			}
			// Lost the race to a concurrent transition; retry with fresh state.
		}
	}
}

// Read-only transactions never call into a Cell: Region.Read serves them
// straight from the readable copy without touching the access controller.

// Write attempts to record a write of this cell by read-write transaction
// txID. Implements the write column of the transition table: Idle or
// ReadShared(sole reader == txID) upgrade to Owned(txID, write=1); Owned(txID)
// stays Owned with the write bit set; anything else fails.
func (c *Cell) Write(txID int64) bool {
	for {
		state := c.state.Load()
		kind, owner, _, multi := unpack(state)

		switch kind {
		case Owned:
			if owner != uint64(txID) {
				return false
			}
			newState := pack(Owned, owner, true, false)
			if c.state.CompareAndSwap(state, newState) {
				c.writeStaged.Store(true)
				return true
			}

		case Idle:
			newState := pack(Owned, uint64(txID), true, false)
			if c.state.CompareAndSwap(state, newState) {
				c.writeStaged.Store(true)
				return true
			}

		case ReadShared:
			if owner != uint64(txID) || multi {
				return false
			}
			newState := pack(Owned, uint64(txID), true, false)
			if c.state.CompareAndSwap(state, newState) {
				c.writeStaged.Store(true)
				return true
			}
		}
	}
}

// MarkEnlisted flips staged from false to true and reports whether this
// call performed the flip. A caller should append the cell to its
// transaction's accessed-cells list only when MarkEnlisted returns true,
// giving exactly-once enlistment regardless of how many times the
// transaction touches the cell within an epoch.
func (c *Cell) MarkEnlisted() bool {
	return c.staged.CompareAndSwap(false, true)
}

// WroteThisEpoch reports whether the cell's current owner has written to it
// during the current epoch.
func (c *Cell) WroteThisEpoch() bool {
	return c.writeStaged.Load()
}

// Reset returns the cell to Idle and clears all bookkeeping flags. Called
// only by commit, once per enlisted cell, with zero transactions active in
// the epoch.
func (c *Cell) Reset() {
	c.state.Store(pack(Idle, 0, false, false))
	c.staged.Store(false)
	c.writeStaged.Store(false)
}
