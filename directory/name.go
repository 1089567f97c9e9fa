package directory

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"

	"settler/types"
)

// RecordTag identifies what a directory entry holds. The tag doubles as the
// domain-separation byte for name derivation, so a balance accumulator and
// an owner metadata record for the same owner never share a key.
type RecordTag byte

const (
	TagBalance    RecordTag = 0x01
	TagStreamHead RecordTag = 0x02
	TagOwner      RecordTag = 0x03
)

func (t RecordTag) String() string {
	switch t {
	case TagBalance:
		return "balance"
	case TagStreamHead:
		return "stream_head"
	case TagOwner:
		return "owner"
	}
	return "unknown"
}

// DeriveName computes the directory key for (tag, typeTag, owner). The
// derivation is deterministic: the same inputs always map to the same name.
// The type tag is length-prefixed so adjacent fields cannot alias.
func DeriveName(tag RecordTag, typeTag string, owner types.Address) types.Name {
	h, _ := blake2b.New256(nil)
	h.Write([]byte{byte(tag)})

	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(typeTag)))
	h.Write(lenBuf[:n])
	h.Write([]byte(typeTag))
	h.Write(owner[:])

	var name types.Name
	copy(name[:], h.Sum(nil))
	return name
}

// BalanceName returns the key of the balance accumulator for (typeTag, owner).
func BalanceName(typeTag string, owner types.Address) types.Name {
	return DeriveName(TagBalance, typeTag, owner)
}

// StreamHeadName returns the key of the event stream head for streamID.
func StreamHeadName(streamID types.Address) types.Name {
	return DeriveName(TagStreamHead, "", streamID)
}

// OwnerName returns the key of the owner metadata record for owner.
func OwnerName(owner types.Address) types.Name {
	return DeriveName(TagOwner, "", owner)
}
