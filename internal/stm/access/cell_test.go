package access

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCellZeroValueIsIdle(t *testing.T) {
	var c Cell
	snap := c.Load()
	if snap.Kind != Idle {
		t.Fatalf("zero value Kind = %v, want Idle", snap.Kind)
	}
}

func TestReadFirstTouchBecomesReadShared(t *testing.T) {
	var c Cell
	res := c.Read(1)
	if !res.OK || res.FromWriteable {
		t.Fatalf("Read(1) = %+v, want OK=true FromWriteable=false", res)
	}
	snap := c.Load()
	if snap.Kind != ReadShared || snap.Owner != 1 || snap.Multi {
		t.Fatalf("unexpected snapshot after first read: %+v", snap)
	}
}

func TestReadSameTxIsIdempotent(t *testing.T) {
	var c Cell
	c.Read(1)
	res := c.Read(1)
	if !res.OK {
		t.Fatal("repeat read by the same transaction must succeed")
	}
	if c.Load().Multi {
		t.Fatal("repeat read by the same transaction must not set Multi")
	}
}

func TestReadSecondTxJoinsMultiReader(t *testing.T) {
	var c Cell
	c.Read(1)
	res := c.Read(2)
	if !res.OK {
		t.Fatal("second reader must be admitted")
	}
	want := Snapshot{Kind: ReadShared, Owner: 1, Multi: true}
	if diff := cmp.Diff(want, c.Load()); diff != "" {
		t.Fatalf("snapshot after second reader joins (-want +got):\n%s", diff)
	}
}

func TestWriteOnIdleBecomesOwned(t *testing.T) {
	var c Cell
	if !c.Write(7) {
		t.Fatal("write on an Idle cell must succeed")
	}
	snap := c.Load()
	if snap.Kind != Owned || snap.Owner != 7 || !snap.Write {
		t.Fatalf("unexpected snapshot after write: %+v", snap)
	}
	if !c.WroteThisEpoch() {
		t.Fatal("WroteThisEpoch must report true after a successful write")
	}
}

func TestWriteUpgradesSoleReader(t *testing.T) {
	var c Cell
	c.Read(3)
	if !c.Write(3) {
		t.Fatal("the sole reader must be able to upgrade to a writer")
	}
	snap := c.Load()
	if snap.Kind != Owned || snap.Owner != 3 {
		t.Fatalf("unexpected snapshot after upgrade: %+v", snap)
	}
}

func TestWriteFailsAgainstMultiReader(t *testing.T) {
	var c Cell
	c.Read(1)
	c.Read(2)
	if c.Write(1) {
		t.Fatal("a reader must not upgrade once a second reader has joined")
	}
}

func TestWriteFailsAgainstForeignOwner(t *testing.T) {
	var c Cell
	c.Write(1)
	if c.Write(2) {
		t.Fatal("a foreign transaction must not steal ownership")
	}
	if c.Read(2).OK {
		t.Fatal("a foreign transaction must not read an owned cell")
	}
}

func TestOwnerReadsFromWriteableCopy(t *testing.T) {
	var c Cell
	c.Write(1)
	res := c.Read(1)
	if !res.OK || !res.FromWriteable {
		t.Fatalf("owner's own read must come from the writeable copy, got %+v", res)
	}
}

func TestMarkEnlistedExactlyOnce(t *testing.T) {
	var c Cell
	first := c.MarkEnlisted()
	second := c.MarkEnlisted()
	if !first {
		t.Fatal("first MarkEnlisted call must return true")
	}
	if second {
		t.Fatal("second MarkEnlisted call must return false")
	}
}

func TestResetClearsEverything(t *testing.T) {
	var c Cell
	c.Write(1)
	c.MarkEnlisted()
	c.Reset()

	snap := c.Load()
	if snap.Kind != Idle || snap.Owner != 0 || snap.Write {
		t.Fatalf("snapshot after Reset = %+v, want zero Idle", snap)
	}
	if c.WroteThisEpoch() {
		t.Fatal("WroteThisEpoch must be false after Reset")
	}
	if !c.MarkEnlisted() {
		t.Fatal("MarkEnlisted must succeed again after Reset")
	}
}

// TestConcurrentWritersExactlyOneWins exercises the CAS loop under real
// contention: only one of many concurrent writers against a freshly Idle
// cell may ever observe success.
func TestConcurrentWritersExactlyOneWins(t *testing.T) {
	const n = 64
	var c Cell
	var wg sync.WaitGroup
	wins := make([]bool, n)

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			wins[i] = c.Write(int64(i + 1))
		}(i)
	}
	wg.Wait()

	count := 0
	for _, w := range wins {
		if w {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("exactly one writer must win a race on an Idle cell, got %d", count)
	}
}
