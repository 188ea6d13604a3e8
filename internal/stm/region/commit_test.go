package region

import "testing"

// TestCommitOrdersWritebackBeforeReset asserts the ordering the original
// implementation's commit pass relied on: every enlisted cell's writeable
// bytes are copied into the readable copy before that cell is reset to
// Idle. Observing them in the other order is invisible to any concurrent
// transaction (commit runs under the batcher mutex with zero active
// transactions) but still a correctness requirement of the readable copy
// itself, which this test checks directly.
func TestCommitOrdersWritebackBeforeReset(t *testing.T) {
	r := newTestRegion(t, 8, 8)

	tx, err := r.Begin(false)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if !r.Write(tx, want, 8, r.Start()) {
		t.Fatal("write must succeed")
	}

	seg := r.table.Get(0)
	cell := seg.Cell(0)
	if !cell.WroteThisEpoch() {
		t.Fatal("WroteThisEpoch must be true before commit runs")
	}

	if !r.End(tx) {
		t.Fatal("End must report true")
	}

	// Post-commit: the cell is Idle (reset ran)...
	if cell.Load().Kind != 0 {
		t.Fatal("cell must be Idle after commit")
	}
	// ...and the readable copy already holds the written bytes (writeback
	// ran strictly before reset, never after).
	buf := make([]byte, 8)
	seg.ReadReadable(0, buf)
	for i, b := range want {
		if buf[i] != b {
			t.Fatalf("readable[%d] = %d, want %d: writeback must precede reset", i, buf[i], b)
		}
	}
}
