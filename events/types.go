package events

import (
	"time"

	"github.com/holiman/uint256"

	"settler/types"
)

// EventType is an enum-like string type for settlement events
type EventType string

const (
	EventBalanceSettled     EventType = "BalanceSettled"
	EventAccumulatorRemoved EventType = "AccumulatorRemoved"
	EventStreamSettled      EventType = "StreamSettled"
	EventSettlementRejected EventType = "SettlementRejected"
	EventPrologueRecorded   EventType = "PrologueRecorded"
)

// SettlementEvent represents any event emitted by the settlement engine
type SettlementEvent interface {
	Type() EventType
	Timestamp() time.Time
	Name() types.Name
}

// BalanceSettled is emitted after a merge or split commits
type BalanceSettled struct {
	name      types.Name
	owner     types.Address
	typeTag   string
	newValue  *uint256.Int
	timestamp time.Time
}

func NewBalanceSettled(name types.Name, owner types.Address, typeTag string, newValue *uint256.Int) *BalanceSettled {
	return &BalanceSettled{
		name:      name,
		owner:     owner,
		typeTag:   typeTag,
		newValue:  newValue.Clone(),
		timestamp: time.Now(),
	}
}

func (e *BalanceSettled) Type() EventType { return EventBalanceSettled }

func (e *BalanceSettled) Timestamp() time.Time { return e.timestamp }

func (e *BalanceSettled) Name() types.Name { return e.name }

func (e *BalanceSettled) Owner() types.Address { return e.owner }

func (e *BalanceSettled) TypeTag() string { return e.typeTag }

func (e *BalanceSettled) NewValue() *uint256.Int { return e.newValue }

// AccumulatorRemoved is emitted when a balance accumulator reaches exactly
// zero and is deleted together with its owner metadata entry
type AccumulatorRemoved struct {
	name      types.Name
	owner     types.Address
	typeTag   string
	timestamp time.Time
}

func NewAccumulatorRemoved(name types.Name, owner types.Address, typeTag string) *AccumulatorRemoved {
	return &AccumulatorRemoved{
		name:      name,
		owner:     owner,
		typeTag:   typeTag,
		timestamp: time.Now(),
	}
}

func (e *AccumulatorRemoved) Type() EventType { return EventAccumulatorRemoved }

func (e *AccumulatorRemoved) Timestamp() time.Time { return e.timestamp }

func (e *AccumulatorRemoved) Name() types.Name { return e.name }

func (e *AccumulatorRemoved) Owner() types.Address { return e.owner }

func (e *AccumulatorRemoved) TypeTag() string { return e.typeTag }

// StreamSettled is emitted after an event-stream settlement commits
type StreamSettled struct {
	name          types.Name
	streamID      types.Address
	checkpointSeq uint64
	numEvents     uint64
	version       uint64
	timestamp     time.Time
}

func NewStreamSettled(name types.Name, streamID types.Address, checkpointSeq, numEvents, version uint64) *StreamSettled {
	return &StreamSettled{
		name:          name,
		streamID:      streamID,
		checkpointSeq: checkpointSeq,
		numEvents:     numEvents,
		version:       version,
		timestamp:     time.Now(),
	}
}

func (e *StreamSettled) Type() EventType { return EventStreamSettled }

func (e *StreamSettled) Timestamp() time.Time { return e.timestamp }

func (e *StreamSettled) Name() types.Name { return e.name }

func (e *StreamSettled) StreamID() types.Address { return e.streamID }

func (e *StreamSettled) CheckpointSeq() uint64 { return e.checkpointSeq }

func (e *StreamSettled) NumEvents() uint64 { return e.numEvents }

func (e *StreamSettled) Version() uint64 { return e.version }

// SettlementRejected is emitted when a gate entry point fails; no state
// changed
type SettlementRejected struct {
	name      types.Name
	caller    types.Address
	reason    string
	timestamp time.Time
}

func NewSettlementRejected(name types.Name, caller types.Address, reason string) *SettlementRejected {
	return &SettlementRejected{
		name:      name,
		caller:    caller,
		reason:    reason,
		timestamp: time.Now(),
	}
}

func (e *SettlementRejected) Type() EventType { return EventSettlementRejected }

func (e *SettlementRejected) Timestamp() time.Time { return e.timestamp }

func (e *SettlementRejected) Name() types.Name { return e.name }

func (e *SettlementRejected) Caller() types.Address { return e.caller }

func (e *SettlementRejected) Reason() string { return e.reason }

// PrologueRecorded is emitted after a batch prologue passes conservation
type PrologueRecorded struct {
	epoch      uint64
	checkpoint uint64
	idx        uint64
	timestamp  time.Time
}

func NewPrologueRecorded(epoch, checkpoint, idx uint64) *PrologueRecorded {
	return &PrologueRecorded{
		epoch:      epoch,
		checkpoint: checkpoint,
		idx:        idx,
		timestamp:  time.Now(),
	}
}

func (e *PrologueRecorded) Type() EventType { return EventPrologueRecorded }

func (e *PrologueRecorded) Timestamp() time.Time { return e.timestamp }

func (e *PrologueRecorded) Name() types.Name { return types.Name{} }

func (e *PrologueRecorded) Epoch() uint64 { return e.epoch }

func (e *PrologueRecorded) Checkpoint() uint64 { return e.checkpoint }

func (e *PrologueRecorded) Idx() uint64 { return e.idx }
