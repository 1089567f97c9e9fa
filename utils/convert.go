package utils

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// Uint256FromString parses a decimal amount. An empty string means zero.
func Uint256FromString(s string) (*uint256.Int, error) {
	if s == "" {
		return uint256.NewInt(0), nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return v, nil
}

// Uint256ToString formats an amount as decimal
func Uint256ToString(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

// Uint256FromHex parses a 0x-prefixed or bare hex digest into a uint256
func Uint256FromHex(s string) (*uint256.Int, error) {
	raw := strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	if len(b) > 32 {
		return nil, fmt.Errorf("hex value %q exceeds 32 bytes", s)
	}
	return new(uint256.Int).SetBytes(b), nil
}

// Uint256ToHex formats a digest value as 0x-prefixed 32-byte hex
func Uint256ToHex(v *uint256.Int) string {
	b := v.Bytes32()
	return "0x" + hex.EncodeToString(b[:])
}
