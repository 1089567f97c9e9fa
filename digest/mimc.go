package digest

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/holiman/uint256"
)

// MiMC combines digests with MiMC over the BN254 scalar field. Inputs are
// reduced into the field before hashing, so digests produced by other
// schemes are accepted; outputs are always canonical field elements.
type MiMC struct{}

func (MiMC) Scheme() string { return "mimc-bn254" }

func (MiMC) Combine(left, right *uint256.Int) *uint256.Int {
	h := mimc.NewMiMC()
	lb := fieldBytes(left)
	rb := fieldBytes(right)
	h.Write(lb[:])
	h.Write(rb[:])
	var out [Size]byte
	copy(out[:], h.Sum(nil))
	return Decode(out)
}

func fieldBytes(v *uint256.Int) [Size]byte {
	var e fr.Element
	b := Encode(v)
	e.SetBytes(b[:])
	return e.Bytes()
}
