package stress

import (
	"math/rand"
	"testing"
)

func TestWorkloadPickRespectsWeights(t *testing.T) {
	w := Workload{ReadWeight: 1, WriteWeight: 0, AllocWeight: 0, FreeWeight: 0}
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		if got := w.pick(rnd); got != opRead {
			t.Fatalf("pick() = %v, want opRead when it is the only weighted op", got)
		}
	}
}

func TestWorkloadValidateRejectsZeroWeights(t *testing.T) {
	w := Workload{}
	if err := w.Validate(); err == nil {
		t.Fatal("a workload with every weight zero must be invalid")
	}
}

func TestWorkloadValidateRejectsBadFraction(t *testing.T) {
	w := DefaultWorkload()
	w.HotWordFraction = 1.5
	if err := w.Validate(); err == nil {
		t.Fatal("HotWordFraction outside [0, 1] must be invalid")
	}
}

func TestWordIndexStaysInBounds(t *testing.T) {
	w := DefaultWorkload()
	rnd := rand.New(rand.NewSource(2))
	for i := 0; i < 1000; i++ {
		idx := w.wordIndex(rnd, 16)
		if idx >= 16 {
			t.Fatalf("wordIndex returned %d, out of bounds for wordCount=16", idx)
		}
	}
}
