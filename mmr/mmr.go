package mmr

import (
	"math/bits"

	"github.com/holiman/uint256"

	"settler/digest"
)

// Accumulator is a Merkle Mountain Range: a commitment to an unbounded
// append-only log held as O(log n) peak digests. Peaks[i] is either the
// all-zero sentinel or the root of a completed subtree covering exactly 2^i
// leaves, with pairing order left-before-right. A legitimately computed
// digest equal to the sentinel is indistinguishable from an empty slot;
// that collision is cryptographically negligible and the representation is
// kept as is.
type Accumulator struct {
	Peaks []uint256.Int
}

// Append folds leaf into the accumulator. Adding a leaf works like
// incrementing a binary counter: the carry ripples up until it lands in an
// empty slot, combining with each occupied peak on the way. Amortized O(1),
// worst case O(log n). Append is not idempotent; replaying the same leaf
// grows the structure again.
func (a *Accumulator) Append(c digest.Combiner, leaf *uint256.Int) {
	carry := leaf.Clone()
	for i := range a.Peaks {
		if a.Peaks[i].IsZero() {
			a.Peaks[i].Set(carry)
			return
		}
		carry = c.Combine(&a.Peaks[i], carry)
		a.Peaks[i].Clear()
	}
	a.Peaks = append(a.Peaks, *carry)
}

// PeakCount returns the number of occupied peaks. After k appends this
// equals bits.OnesCount64(k).
func (a *Accumulator) PeakCount() int {
	n := 0
	for i := range a.Peaks {
		if !a.Peaks[i].IsZero() {
			n++
		}
	}
	return n
}

// Root folds all occupied peaks into a single digest, combining higher
// peaks with the running root from the lowest peak upward. Returns the zero
// digest for an empty accumulator. Non-destructive.
func (a *Accumulator) Root(c digest.Combiner) *uint256.Int {
	var root *uint256.Int
	for i := range a.Peaks {
		if a.Peaks[i].IsZero() {
			continue
		}
		if root == nil {
			root = a.Peaks[i].Clone()
			continue
		}
		root = c.Combine(&a.Peaks[i], root)
	}
	if root == nil {
		return new(uint256.Int)
	}
	return root
}

// Clone returns a deep copy.
func (a *Accumulator) Clone() Accumulator {
	peaks := make([]uint256.Int, len(a.Peaks))
	copy(peaks, a.Peaks)
	return Accumulator{Peaks: peaks}
}

// Equal reports whether two accumulators hold the same peaks, ignoring
// trailing empty slots.
func (a *Accumulator) Equal(b *Accumulator) bool {
	long, short := a.Peaks, b.Peaks
	if len(short) > len(long) {
		long, short = short, long
	}
	for i := range short {
		if !long[i].Eq(&short[i]) {
			return false
		}
	}
	for i := len(short); i < len(long); i++ {
		if !long[i].IsZero() {
			return false
		}
	}
	return true
}

// CapacityForCount returns the peak slot count needed for n total appends.
func CapacityForCount(n uint64) int {
	return bits.Len64(n)
}
