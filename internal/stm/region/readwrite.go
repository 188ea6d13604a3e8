package region

import (
	"fmt"

	"github.com/kolkov/stm/internal/stm/addr"
	"github.com/kolkov/stm/internal/stm/wordstore"
)

// Read copies n bytes (a positive multiple of Align) from src, a shared
// address, into dst, a caller-owned buffer. It returns false if the
// transaction has just been aborted by a failed access, in which case the
// engine has already torn the transaction down via End.
func (r *Region) Read(tx Tx, src uint64, n uint64, dst []byte) bool {
	seg, offset := addr.Decode(src)
	baseWord := addr.WordIndex(offset, r.align)
	words := n / r.align
	segment := r.table.Get(seg)

	if tx.IsReadOnly() {
		for i := uint64(0); i < words; i++ {
			segment.ReadReadable(baseWord+i, dst[i*r.align:(i+1)*r.align])
		}
		return true
	}

	t := tx.rw
	for i := uint64(0); i < words; i++ {
		wordIndex := baseWord + i
		cell := segment.Cell(wordIndex)

		res := cell.Read(t.ID)
		if !res.OK {
			t.Abort()
			r.End(tx)
			return false
		}

		dstWord := dst[i*r.align : (i+1)*r.align]
		if res.FromWriteable {
			segment.ReadWriteable(wordIndex, dstWord)
		} else {
			segment.ReadReadable(wordIndex, dstWord)
		}
		t.Enlist(seg, wordIndex, cell)
	}
	return true
}

// Write copies n bytes (a positive multiple of Align) from src, a
// caller-owned buffer, into dst, a shared address. It returns false if the
// transaction has just been aborted by a failed access, in which case the
// engine has already torn the transaction down via End.
func (r *Region) Write(tx Tx, src []byte, n uint64, dst uint64) bool {
	seg, offset := addr.Decode(dst)
	baseWord := addr.WordIndex(offset, r.align)
	words := n / r.align
	segment := r.table.Get(seg)

	t := tx.rw
	for i := uint64(0); i < words; i++ {
		wordIndex := baseWord + i
		cell := segment.Cell(wordIndex)

		if !cell.Write(t.ID) {
			t.Abort()
			r.End(tx)
			return false
		}

		segment.StageWrite(wordIndex, src[i*r.align:(i+1)*r.align])
		t.Enlist(seg, wordIndex, cell)
	}
	return true
}

// Alloc claims a fresh segment of size bytes (a positive multiple of
// Align), records it in tx's allocated-segments log, and returns its start
// address. Only read-write transactions may allocate.
func (r *Region) Alloc(tx Tx, size uint64) (address uint64, status AllocStatus, err error) {
	if tx.rw == nil {
		return 0, AllocNoMem, ErrReadOnlyAlloc
	}
	if err := addr.ValidateSizeAlign(size, r.align); err != nil {
		return 0, AllocNoMem, fmt.Errorf("region.Alloc: %w: %w", ErrInvalidSizeAlign, err)
	}
	if tx.rw.Aborted() {
		return 0, AllocAbort, nil
	}

	seg, err := r.claimSegment()
	if err != nil {
		return 0, AllocNoMem, err
	}

	r.table.Set(seg, wordstore.NewSegment(size, r.align))
	tx.rw.RecordAlloc(seg)

	return addr.Encode(seg, 0), AllocSuccess, nil
}

// Free records that addr (the start address of a previously allocated
// segment) should be released. Release itself is deferred to commit; it
// never happens if the transaction aborts. Segment 0 can never be freed.
func (r *Region) Free(tx Tx, address uint64) bool {
	if tx.rw == nil {
		return false
	}
	seg, offset := addr.Decode(address)
	if offset != 0 || !addr.IsFreeable(seg) {
		return false
	}
	tx.rw.RecordFree(seg)
	return true
}
