package region

// commit runs exactly once per epoch, invoked by the batcher's last leaver
// while still holding the batcher's mutex (so zero transactions are active
// and no reader can observe an intermediate state).
//
// Step 1 (writeback) must precede step 2 (reset): the original
// implementation's ordering note applies unchanged — resetting a cell to
// Idle before copying its writeable bytes into readable would let nothing
// observe the stale value, because no transaction can be mid-Enter while
// commit holds the batcher mutex; the ordering here is simply carried
// forward for the same mechanical reason the spec documents.
func (r *Region) commit() {
	for _, ac := range r.modified {
		if ac.Cell.WroteThisEpoch() {
			if seg := r.table.Get(ac.Segment); seg != nil {
				seg.CommitWord(ac.Word)
			}
		}
		ac.Cell.Reset()
	}
	r.modified = r.modified[:0]

	for _, seg := range r.freed {
		r.releaseSegment(seg)
	}
	r.freed = r.freed[:0]
}
