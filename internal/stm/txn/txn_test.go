package txn

import (
	"testing"

	"github.com/kolkov/stm/internal/stm/access"
	"github.com/kolkov/stm/internal/stm/addr"
)

func TestNewTransactionStartsUnaborted(t *testing.T) {
	tx := New(5)
	if tx.ID != 5 {
		t.Fatalf("ID = %d, want 5", tx.ID)
	}
	if tx.Aborted() {
		t.Fatal("a fresh transaction must not be aborted")
	}
}

func TestAbortIsIdempotent(t *testing.T) {
	tx := New(1)
	tx.Abort()
	tx.Abort()
	if !tx.Aborted() {
		t.Fatal("Abort must mark the transaction aborted")
	}
}

func TestEnlistRecordsEachCellExactlyOnce(t *testing.T) {
	tx := New(1)
	var cell access.Cell

	tx.Enlist(3, 7, &cell)
	tx.Enlist(3, 7, &cell)
	tx.Enlist(3, 7, &cell)

	if len(tx.Accessed) != 1 {
		t.Fatalf("Accessed has %d entries, want 1", len(tx.Accessed))
	}
	if tx.Accessed[0].Segment != 3 || tx.Accessed[0].Word != 7 {
		t.Fatalf("unexpected accessed-cell record: %+v", tx.Accessed[0])
	}
}

func TestRecordAllocAndFree(t *testing.T) {
	tx := New(1)
	tx.RecordAlloc(addr.Segment(2))
	tx.RecordAlloc(addr.Segment(9))
	tx.RecordFree(addr.Segment(2))

	if len(tx.Allocated) != 2 || tx.Allocated[0] != 2 || tx.Allocated[1] != 9 {
		t.Fatalf("Allocated = %v, want [2 9]", tx.Allocated)
	}
	if len(tx.Freed) != 1 || tx.Freed[0] != 2 {
		t.Fatalf("Freed = %v, want [2]", tx.Freed)
	}
}

func TestSentinelIDsAreDistinguished(t *testing.T) {
	if InvalidTxID == ReadOnlyTxID {
		t.Fatal("InvalidTxID and ReadOnlyTxID must be distinct")
	}
	if InvalidTxID >= 1 || ReadOnlyTxID >= 1 {
		t.Fatal("both sentinels must fall outside the range of real transaction ids (>= 1)")
	}
}
