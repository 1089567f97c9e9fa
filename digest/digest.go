package digest

import (
	"github.com/holiman/uint256"
	"golang.org/x/crypto/blake2b"
)

// Size is the width of a canonical digest in bytes.
const Size = 32

// Encode returns the canonical fixed-width big-endian representation of v.
// Round-trips exactly through Decode.
func Encode(v *uint256.Int) [Size]byte {
	return v.Bytes32()
}

// Decode reinterprets canonical bytes as an unsigned 256-bit integer.
func Decode(b [Size]byte) *uint256.Int {
	return new(uint256.Int).SetBytes32(b[:])
}

// Combiner folds two digests into one. All writers of a commitment must use
// the same combiner with the same byte order; mixing schemes makes
// commitments computed by different parties silently diverge.
type Combiner interface {
	Combine(left, right *uint256.Int) *uint256.Int
	Scheme() string
}

// Blake2b combines digests with BLAKE2b-256 over the concatenated canonical
// encodings. This is the default scheme.
type Blake2b struct{}

func (Blake2b) Scheme() string { return "blake2b-256" }

func (Blake2b) Combine(left, right *uint256.Int) *uint256.Int {
	var buf [2 * Size]byte
	l := Encode(left)
	r := Encode(right)
	copy(buf[:Size], l[:])
	copy(buf[Size:], r[:])
	sum := blake2b.Sum256(buf[:])
	return Decode(sum)
}

// ForScheme returns the combiner registered under the given scheme name.
func ForScheme(scheme string) (Combiner, bool) {
	switch scheme {
	case "", "blake2b-256":
		return Blake2b{}, true
	case "mimc-bn254":
		return MiMC{}, true
	}
	return nil, false
}
