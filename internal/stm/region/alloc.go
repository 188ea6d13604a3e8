package region

import (
	"github.com/kolkov/stm/internal/stm/addr"
	"github.com/kolkov/stm/internal/stm/wordstore"
)

// claimSegment assigns a fresh segment id. Below capacity this is a single
// atomic increment (O(1) amortised); once the table has filled at least
// once, it falls back to a linear scan for the first freed (nil) slot
// (O(n)), guarded by tableMu since multiple transactions may race to reuse
// the same freed slot.
func (r *Region) claimSegment() (addr.Segment, error) {
	if idx := r.nextSeg.Add(1) - 1; idx < addr.MaxSegments {
		return addr.Segment(idx), nil
	}

	r.tableMu.Lock()
	defer r.tableMu.Unlock()
	for i := 0; i < addr.MaxSegments; i++ {
		s := addr.Segment(i)
		if r.table.Get(s) == nil {
			// Reserve the slot before tableMu is released so a concurrent
			// scan cannot return it too; Alloc installs the real segment.
			r.table.Set(s, &wordstore.Segment{})
			return s, nil
		}
	}
	return 0, ErrSegmentTableFull
}

// releaseSegment drops the segment's byte copies and access-control cells.
// Go's garbage collector reclaims the backing arrays once the table no
// longer references them; there is no manual free step to mirror from the
// original C implementation.
func (r *Region) releaseSegment(seg addr.Segment) {
	r.table.Set(seg, nil)
}
