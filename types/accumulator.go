package types

import (
	"github.com/holiman/uint256"

	"settler/mmr"
)

// BalanceAccumulator holds the accumulated net value for one (type tag,
// owner) pair. The value is non-negative; everything above 127 bits is
// headroom reserved for sign/overflow handling upstream. Created on the
// first nonzero merge, mutated in place by every settlement, deleted the
// instant the value returns to exactly zero.
type BalanceAccumulator struct {
	Value *uint256.Int
}

// EventStreamHead is the commitment state of one append-only event stream.
// Streams persist indefinitely; heads are never deleted by settlement.
type EventStreamHead struct {
	MMR           mmr.Accumulator
	CheckpointSeq uint64
	NumEvents     uint64
	Version       uint64
}

// OwnerMetadata is the auxiliary per-owner record, paired with the owner's
// balance accumulators: created with the first one, removed with the last.
type OwnerMetadata struct {
	Owner        Address
	Accumulators map[Name]struct{}
}

// SettlementBatch carries the parameters of one privileged settlement call.
// It exists only for the duration of that call; exactly-once execution per
// (Epoch, CheckpointHeight, Idx) is guaranteed by the surrounding
// transaction engine, not checked here.
type SettlementBatch struct {
	Epoch            uint64
	CheckpointHeight uint64
	Idx              uint64
	InputTotal       *uint256.Int
	OutputTotal      *uint256.Int
}
