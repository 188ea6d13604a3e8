package stress

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"math/rand"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kolkov/stm/stm"
)

// Stats accumulates outcome counters across every worker goroutine. All
// fields are updated with sync/atomic and are safe to read concurrently
// with a running Run.
type Stats struct {
	Committed int64 // transactions that committed, possibly after retries
	Aborted   int64 // individual attempts that aborted (including retried ones)
	GaveUp    int64 // iterations that exhausted MaxRetries without committing
	Allocated int64 // successful Alloc calls
	Freed     int64 // successful Free calls
}

// Runner drives a configured workload against a freshly created region.
type Runner struct {
	cfg *Config
	log *zap.Logger
}

// Option configures a Runner at construction time.
type Option func(*Runner)

// WithLogger attaches a structured logger to the runner and the region it
// creates. A nil logger is replaced with a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// New builds a Runner for cfg.
func New(cfg *Config, opts ...Option) *Runner {
	r := &Runner{cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	return r
}

// Run creates a region sized per the config, fans Workers goroutines out
// over it via an errgroup, and tears the region down before returning. It
// reports aggregate outcome counters; an error is returned only if region
// creation fails or a worker's context is cancelled.
func (r *Runner) Run(ctx context.Context) (*Stats, error) {
	region, err := stm.Create(r.cfg.RegionSize, r.cfg.Align, stm.WithLogger(r.log))
	if err != nil {
		return nil, err
	}
	defer func() {
		if derr := region.Destroy(); derr != nil {
			r.log.Warn("region destroy failed after run", zap.Error(derr))
		}
	}()

	stats := &Stats{}
	pool := &addressPool{}
	pool.put(region.Start())

	g, gctx := errgroup.WithContext(ctx)
	for id := 0; id < r.cfg.Workers; id++ {
		workerID := id
		g.Go(func() error {
			return r.runWorker(gctx, region, workerID, pool, stats)
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	r.log.Info("stress run complete",
		zap.Int64("committed", stats.Committed),
		zap.Int64("aborted", stats.Aborted),
		zap.Int64("gave_up", stats.GaveUp),
		zap.Int64("allocated", stats.Allocated),
		zap.Int64("freed", stats.Freed),
	)
	return stats, nil
}

// addressPool tracks the segment start addresses workers read from and
// free: the region's initial segment plus every segment successfully
// allocated and not yet freed. Segment 0 is seeded in and never removed or
// handed out by takeFreeable, since it can never be
// freed (addr.IsFreeable rejects it) and always remains a valid Read/Write
// target.
type addressPool struct {
	mu        sync.Mutex
	addresses []uint64
}

func (p *addressPool) put(addr uint64) {
	p.mu.Lock()
	p.addresses = append(p.addresses, addr)
	p.mu.Unlock()
}

func (p *addressPool) sample(rnd *rand.Rand) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.addresses[rnd.Intn(len(p.addresses))]
}

// takeFreeable removes and returns a random freeable (non-zero) address, or
// false if none is currently available.
func (p *addressPool) takeFreeable(rnd *rand.Rand) (uint64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	// index 0 is always the seeded segment-0 address, never freeable.
	if len(p.addresses) < 2 {
		return 0, false
	}
	i := 1 + rnd.Intn(len(p.addresses)-1)
	addr := p.addresses[i]
	p.addresses = append(p.addresses[:i], p.addresses[i+1:]...)
	return addr, true
}

func (r *Runner) runWorker(ctx context.Context, region *stm.Region, id int, pool *addressPool, stats *Stats) error {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano() ^ int64(id+1)*2654435761))
	wordCount := region.Size() / region.Align()

	for i := 0; i < r.cfg.IterationsPerWorker; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		r.attempt(region, rnd, wordCount, pool, stats)
	}
	return nil
}

// attempt runs one logical iteration: pick an operation, run it in a fresh
// transaction, and retry with exponential backoff while the transaction
// keeps aborting due to contention, up to MaxRetries.
func (r *Runner) attempt(region *stm.Region, rnd *rand.Rand, wordCount uint64, pool *addressPool, stats *Stats) {
	bo := backoff.ExponentialBackOff{
		InitialInterval:     backoff.DefaultInitialInterval,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         10 * time.Millisecond,
	}
	bo.Reset()

	op := r.cfg.Workload.pick(rnd)
	for try := 0; try <= r.cfg.MaxRetries; try++ {
		if r.runOnce(region, rnd, wordCount, op, pool, stats) {
			atomic.AddInt64(&stats.Committed, 1)
			return
		}
		atomic.AddInt64(&stats.Aborted, 1)
		time.Sleep(bo.NextBackOff())
	}
	atomic.AddInt64(&stats.GaveUp, 1)
}

func (r *Runner) runOnce(region *stm.Region, rnd *rand.Rand, wordCount uint64, op opKind, pool *addressPool, stats *Stats) bool {
	align := region.Align()

	switch op {
	case opRead:
		if rnd.Intn(2) == 0 {
			tx, err := region.Begin(true)
			if err != nil {
				return false
			}
			buf := make([]byte, align)
			addr := pool.sample(rnd)
			region.Read(tx, addr, align, buf)
			return region.End(tx)
		}

		tx, err := region.Begin(false)
		if err != nil {
			return false
		}
		buf := make([]byte, align)
		word := r.cfg.Workload.wordIndex(rnd, wordCount)
		if !region.Read(tx, region.Start()+word*align, align, buf) {
			return false // End already ran inside Read on failure
		}
		return region.End(tx)

	case opWrite:
		tx, err := region.Begin(false)
		if err != nil {
			return false
		}
		src := make([]byte, align)
		src[0] = byte(rnd.Intn(256))
		word := r.cfg.Workload.wordIndex(rnd, wordCount)
		if !region.Write(tx, src, align, region.Start()+word*align) {
			return false
		}
		return region.End(tx)

	case opAlloc:
		tx, err := region.Begin(false)
		if err != nil {
			return false
		}
		address, status, allocErr := region.Alloc(tx, align)
		if allocErr != nil || status != stm.AllocSuccess {
			return region.End(tx)
		}
		committed := region.End(tx)
		if committed {
			pool.put(address)
			atomic.AddInt64(&stats.Allocated, 1)
		}
		return committed

	case opFree:
		address, ok := pool.takeFreeable(rnd)
		if !ok {
			return true // nothing to free; not a contention failure
		}
		tx, err := region.Begin(false)
		if err != nil {
			pool.put(address)
			return false
		}
		if !region.Free(tx, address) {
			pool.put(address)
			return region.End(tx)
		}
		committed := region.End(tx)
		if committed {
			atomic.AddInt64(&stats.Freed, 1)
		} else {
			pool.put(address)
		}
		return committed
	}
	return true
}
