package directory

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/holiman/uint256"

	"settler/digest"
	serrors "settler/errors"
	"settler/mmr"
	"settler/types"
)

// Record is a value the directory can hold: a balance accumulator, an event
// stream head, or an owner metadata record, discriminated by tag.
type Record interface {
	Tag() RecordTag
}

type balanceRecord struct{ acc *types.BalanceAccumulator }
type streamHeadRecord struct{ head *types.EventStreamHead }
type ownerRecord struct{ meta *types.OwnerMetadata }

func (balanceRecord) Tag() RecordTag    { return TagBalance }
func (streamHeadRecord) Tag() RecordTag { return TagStreamHead }
func (ownerRecord) Tag() RecordTag      { return TagOwner }

// Balance wraps a balance accumulator for storage.
func Balance(acc *types.BalanceAccumulator) Record { return balanceRecord{acc} }

// StreamHead wraps an event stream head for storage.
func StreamHead(head *types.EventStreamHead) Record { return streamHeadRecord{head} }

// Owner wraps an owner metadata record for storage.
func Owner(meta *types.OwnerMetadata) Record { return ownerRecord{meta} }

// Stored records are a one-byte tag followed by a tag-specific payload:
//   - balance:     32-byte canonical value
//   - stream head: version u64 | checkpoint_seq u64 | num_events u64 |
//     peak count u16 | peaks, 32 bytes each, empty sentinel slots included
//     so peak positions survive the round trip
//   - owner:       32-byte owner | count u16 | names, 32 bytes each, sorted
func marshalRecord(r Record) []byte {
	switch rec := r.(type) {
	case balanceRecord:
		buf := make([]byte, 1, 1+digest.Size)
		buf[0] = byte(TagBalance)
		v := digest.Encode(rec.acc.Value)
		return append(buf, v[:]...)

	case streamHeadRecord:
		head := rec.head
		buf := make([]byte, 1+8+8+8+2, 1+8+8+8+2+len(head.MMR.Peaks)*digest.Size)
		buf[0] = byte(TagStreamHead)
		binary.BigEndian.PutUint64(buf[1:], head.Version)
		binary.BigEndian.PutUint64(buf[9:], head.CheckpointSeq)
		binary.BigEndian.PutUint64(buf[17:], head.NumEvents)
		binary.BigEndian.PutUint16(buf[25:], uint16(len(head.MMR.Peaks)))
		for i := range head.MMR.Peaks {
			p := digest.Encode(&head.MMR.Peaks[i])
			buf = append(buf, p[:]...)
		}
		return buf

	case ownerRecord:
		meta := rec.meta
		names := make([]types.Name, 0, len(meta.Accumulators))
		for n := range meta.Accumulators {
			names = append(names, n)
		}
		sort.Slice(names, func(i, j int) bool {
			return bytes.Compare(names[i][:], names[j][:]) < 0
		})

		buf := make([]byte, 1+32+2, 1+32+2+len(names)*32)
		buf[0] = byte(TagOwner)
		copy(buf[1:], meta.Owner[:])
		binary.BigEndian.PutUint16(buf[33:], uint16(len(names)))
		for _, n := range names {
			buf = append(buf, n[:]...)
		}
		return buf
	}
	return nil
}

func unmarshalRecord(data []byte) (Record, error) {
	if len(data) < 1 {
		return nil, serrors.New(serrors.ErrCodeInternal, "empty directory record")
	}

	switch RecordTag(data[0]) {
	case TagBalance:
		if len(data) != 1+digest.Size {
			return nil, serrors.Newf(serrors.ErrCodeInternal, "malformed balance record: %d bytes", len(data))
		}
		var v [digest.Size]byte
		copy(v[:], data[1:])
		return balanceRecord{&types.BalanceAccumulator{Value: digest.Decode(v)}}, nil

	case TagStreamHead:
		if len(data) < 1+8+8+8+2 {
			return nil, serrors.Newf(serrors.ErrCodeInternal, "malformed stream head record: %d bytes", len(data))
		}
		head := &types.EventStreamHead{
			Version:       binary.BigEndian.Uint64(data[1:]),
			CheckpointSeq: binary.BigEndian.Uint64(data[9:]),
			NumEvents:     binary.BigEndian.Uint64(data[17:]),
		}
		count := int(binary.BigEndian.Uint16(data[25:]))
		peaks := data[27:]
		if len(peaks) != count*digest.Size {
			return nil, serrors.Newf(serrors.ErrCodeInternal, "malformed stream head peaks: expected %d, got %d bytes", count*digest.Size, len(peaks))
		}
		head.MMR = mmr.Accumulator{Peaks: make([]uint256.Int, count)}
		for i := 0; i < count; i++ {
			var p [digest.Size]byte
			copy(p[:], peaks[i*digest.Size:])
			head.MMR.Peaks[i] = *digest.Decode(p)
		}
		return streamHeadRecord{head}, nil

	case TagOwner:
		if len(data) < 1+32+2 {
			return nil, serrors.Newf(serrors.ErrCodeInternal, "malformed owner record: %d bytes", len(data))
		}
		meta := &types.OwnerMetadata{Accumulators: make(map[types.Name]struct{})}
		copy(meta.Owner[:], data[1:])
		count := int(binary.BigEndian.Uint16(data[33:]))
		names := data[35:]
		if len(names) != count*32 {
			return nil, serrors.Newf(serrors.ErrCodeInternal, "malformed owner names: expected %d, got %d bytes", count*32, len(names))
		}
		for i := 0; i < count; i++ {
			var n types.Name
			copy(n[:], names[i*32:])
			meta.Accumulators[n] = struct{}{}
		}
		return ownerRecord{meta}, nil
	}

	return nil, serrors.Newf(serrors.ErrCodeInternal, "unknown record tag 0x%02x", data[0])
}

// Decode parses a raw stored record, for offline inspection.
func Decode(data []byte) (Record, error) {
	return unmarshalRecord(data)
}

// Summary renders a one-line human-readable view of a record.
func Summary(r Record) string {
	switch rec := r.(type) {
	case balanceRecord:
		return fmt.Sprintf("balance value=%s", rec.acc.Value.Dec())
	case streamHeadRecord:
		h := rec.head
		return fmt.Sprintf("stream_head version=%d checkpoint_seq=%d num_events=%d peaks=%d",
			h.Version, h.CheckpointSeq, h.NumEvents, len(h.MMR.Peaks))
	case ownerRecord:
		return fmt.Sprintf("owner %s accumulators=%d", rec.meta.Owner, len(rec.meta.Accumulators))
	}
	return "unknown"
}
