package stress

import (
	"errors"
	"math/rand"
)

// ErrInvalidConfig is returned by Config.Validate and Workload.Validate.
var ErrInvalidConfig = errors.New("stress: invalid configuration")

// opKind is the operation a worker performs in one iteration.
type opKind int

const (
	opRead opKind = iota
	opWrite
	opAlloc
	opFree
)

// Workload describes the operation mix and word-access pattern a worker
// draws from on each iteration.
type Workload struct {
	// ReadWeight, WriteWeight, AllocWeight, and FreeWeight are relative
	// weights (need not sum to 100) used to draw the next operation.
	ReadWeight  int `yaml:"read_weight"`
	WriteWeight int `yaml:"write_weight"`
	AllocWeight int `yaml:"alloc_weight"`
	FreeWeight  int `yaml:"free_weight"`

	// HotWordFraction is the probability, in [0, 1], that a worker's
	// read/write operation lands on the hot range (the first HotWords words
	// of the initial segment); otherwise it spreads uniformly over the whole
	// segment. A small hot range concentrates contention on a handful of
	// access-control cells.
	HotWordFraction float64 `yaml:"hot_word_fraction"`
	// HotWords is the number of words at the start of the segment
	// considered hot.
	HotWords uint64 `yaml:"hot_words"`
}

// DefaultWorkload concentrates most operations on a single hot word, the
// sharpest contention pattern a counter-increment workload can produce.
func DefaultWorkload() Workload {
	return Workload{
		ReadWeight:      2,
		WriteWeight:     5,
		AllocWeight:     1,
		FreeWeight:      1,
		HotWordFraction: 0.9,
		HotWords:        1,
	}
}

// Validate checks that the workload can produce at least one operation and
// that its hot-word fraction is a probability.
func (w Workload) Validate() error {
	if w.ReadWeight+w.WriteWeight+w.AllocWeight+w.FreeWeight <= 0 {
		return ErrInvalidConfig
	}
	if w.HotWordFraction < 0 || w.HotWordFraction > 1 {
		return ErrInvalidConfig
	}
	return nil
}

// pick draws the next operation according to the configured weights.
func (w Workload) pick(rnd *rand.Rand) opKind {
	total := w.ReadWeight + w.WriteWeight + w.AllocWeight + w.FreeWeight
	n := rnd.Intn(total)
	switch {
	case n < w.ReadWeight:
		return opRead
	case n < w.ReadWeight+w.WriteWeight:
		return opWrite
	case n < w.ReadWeight+w.WriteWeight+w.AllocWeight:
		return opAlloc
	default:
		return opFree
	}
}

// wordIndex draws a word index under wordCount, biased toward the hot
// range with probability HotWordFraction.
func (w Workload) wordIndex(rnd *rand.Rand, wordCount uint64) uint64 {
	hot := w.HotWords
	if hot == 0 || hot > wordCount {
		hot = wordCount
	}
	if hot > 0 && rnd.Float64() < w.HotWordFraction {
		return uint64(rnd.Int63n(int64(hot)))
	}
	return uint64(rnd.Int63n(int64(wordCount)))
}
