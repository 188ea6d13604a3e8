package stm

import (
	"go.uber.org/zap"

	region "github.com/kolkov/stm/internal/stm/region"
)

// Region is a shared memory region: the segment table, commit/rollback
// logs, and batcher for one transactional memory instance. Use Create to
// obtain one.
type Region = region.Region

// Tx is an opaque transaction handle returned by Region.Begin.
type Tx = region.Tx

// Option configures a Region at creation time.
type Option = region.Option

// AllocStatus is the outcome of a Region.Alloc call.
type AllocStatus = region.AllocStatus

// Alloc outcomes.
const (
	AllocSuccess = region.AllocSuccess
	AllocNoMem   = region.AllocNoMem
	AllocAbort   = region.AllocAbort
)

// InvalidTx is the sentinel handle returned by Begin on failure.
var InvalidTx = region.InvalidTx

// WithLogger attaches a structured logger to a Region's batcher. Logging
// never sits on the per-word read/write path — only on epoch transitions.
func WithLogger(log *zap.Logger) Option {
	return region.WithLogger(log)
}

// Create allocates and initializes a new shared memory region with one
// first, non-freeable segment of size bytes, aligned to align.
func Create(size, align uint64, opts ...Option) (*Region, error) {
	return region.Create(size, align, opts...)
}
