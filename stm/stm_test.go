package stm_test

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/kolkov/stm/stm"
)

func TestCreateRejectsBadSizeAlign(t *testing.T) {
	if _, err := stm.Create(10, 8); err == nil {
		t.Fatal("Create must reject a size that is not a multiple of align")
	}
}

func TestAllocFreeRoundTrip(t *testing.T) {
	region, err := stm.Create(8, 8, stm.WithLogger(zaptest.NewLogger(t)))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer region.Destroy()

	tx, err := region.Begin(false)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	p, status, err := region.Alloc(tx, 8)
	if err != nil || status != stm.AllocSuccess {
		t.Fatalf("Alloc failed: status=%v err=%v", status, err)
	}
	if !region.Write(tx, []byte{1, 2, 3, 4, 5, 6, 7, 8}, 8, p) {
		t.Fatal("write to freshly allocated segment must succeed")
	}
	if !region.End(tx) {
		t.Fatal("End must report true")
	}

	tx2, err := region.Begin(false)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if !region.Free(tx2, p) {
		t.Fatal("Free of a previously allocated segment must succeed")
	}
	if !region.End(tx2) {
		t.Fatal("End must report true")
	}
}

func TestInvalidTxIsNotValid(t *testing.T) {
	if stm.InvalidTx.IsValid() {
		t.Fatal("InvalidTx must never report itself valid")
	}
}
