package types

import (
	"encoding/hex"
	"fmt"
)

// Address is a 32-byte identity: an accumulator owner, an event stream id,
// or the caller of a settlement entry point.
type Address [32]byte

// Name is the 32-byte directory key derived from (record kind, type tag,
// owner). Two distinct inputs never collide in practice; the directory
// treats it as opaque.
type Name [32]byte

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

func (a Address) Bytes() []byte {
	return a[:]
}

// AddressFromHex parses a 64-hex-digit address, with or without 0x prefix.
func AddressFromHex(s string) (Address, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	var a Address
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if len(b) != len(a) {
		return a, fmt.Errorf("invalid address length: expected %d bytes, got %d", len(a), len(b))
	}
	copy(a[:], b)
	return a, nil
}

func (n Name) String() string {
	return hex.EncodeToString(n[:])
}
