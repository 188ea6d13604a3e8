// Package stm provides the public API of a word-addressable software
// transactional memory engine: serialisable, abortable, multi-writer
// transactions over a dynamically allocated shared heap.
//
// # Quick start
//
//	region, err := stm.Create(4096, 8)
//	if err != nil {
//		// handle invalid-region failure
//	}
//	defer region.Destroy()
//
//	tx, _ := region.Begin(false) // read-write transaction
//	buf := make([]byte, 8)
//	if !region.Write(tx, []byte{42, 0, 0, 0, 0, 0, 0, 0}, 8, region.Start()) {
//		// tx was aborted by contention; do not reuse the handle
//	}
//	committed := region.End(tx)
//
// # Model
//
// Client goroutines open transactions (read-only or read-write) against a
// Region, issue typed read/write/allocate/free operations against shared
// memory addresses, and commit or abort atomically when the transaction
// ends. The engine guarantees opacity — no transaction ever observes an
// inconsistent snapshot — and serialisable commit order, without holding
// any long-lived global lock in the common path.
//
// Transactions are grouped into epochs by an internal batcher: every
// transaction active between two consecutive commits belongs to the same
// epoch and commits or aborts together at its end. A failed Read or Write
// marks the transaction aborted and tears it down immediately — the
// returned handle must not be reused afterward.
//
// This package is a thin façade over internal/stm/region; see that
// package's godoc for the engine's internals (segmented address space,
// dual-copy word store, access controller, batcher).
package stm
