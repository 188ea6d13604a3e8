package region

import "errors"

// Sentinel errors for region-level failures, following the one
// errors.New-per-failure-mode convention used throughout this codebase.
var (
	// ErrInvalidSizeAlign is returned by Create/Alloc when size/align fail
	// the §3 data-model contract (align a power of two, size a positive
	// multiple of align).
	ErrInvalidSizeAlign = errors.New("region: invalid size/align")

	// ErrSegmentTableFull is returned by Alloc when every one of
	// addr.MaxSegments slots is in use.
	ErrSegmentTableFull = errors.New("region: segment table is full")

	// ErrReadOnlyAlloc is returned by Alloc when called with a read-only
	// transaction handle; only read-write transactions may allocate or free
	// memory (Free reports false for a read-only handle).
	ErrReadOnlyAlloc = errors.New("region: read-only transactions cannot allocate or free memory")

	// ErrLiveTransactions is returned by Destroy when transactions are
	// still active in the region's current epoch.
	ErrLiveTransactions = errors.New("region: cannot destroy a region with live transactions")
)
