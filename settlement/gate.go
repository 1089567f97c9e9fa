package settlement

import (
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	"settler/digest"
	"settler/directory"
	serrors "settler/errors"
	"settler/events"
	"settler/logx"
	"settler/store"
	"settler/types"
)

// Engine is the settlement gate: the only writer of balance accumulators
// and event stream heads. Every entry point authenticates the caller
// against the system identity before touching any state.
//
// Exactly-once execution per (epoch, checkpoint, idx) is the host's
// guarantee, not the engine's: replaying a settlement double-applies it.
// The host also serializes all settlement calls; the engine's own lock only
// keeps a misbehaving embedder from corrupting records.
type Engine struct {
	mu          sync.Mutex
	dir         *directory.Directory
	meta        store.SettlementMetaStore
	eventRouter *events.EventRouter
	combiner    digest.Combiner
	system      types.Address
}

func NewEngine(dir *directory.Directory, meta store.SettlementMetaStore, eventRouter *events.EventRouter, combiner digest.Combiner, system types.Address) *Engine {
	return &Engine{
		dir:         dir,
		meta:        meta,
		eventRouter: eventRouter,
		combiner:    combiner,
		system:      system,
	}
}

func (e *Engine) authorize(caller types.Address) error {
	if caller != e.system {
		return serrors.Newf(serrors.ErrCodeUnauthorized, "caller %s is not the system identity", caller)
	}
	return nil
}

// Prologue authorizes the batch and records conservation: the total value
// entering the batch must equal the total leaving it. Called once per
// (epoch, checkpoint, idx) before the batch's settlements.
func (e *Engine) Prologue(caller types.Address, batch *types.SettlementBatch) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.authorize(caller); err != nil {
		e.eventRouter.PublishSettlementEvent(events.NewSettlementRejected(types.Name{}, caller, err.Error()))
		return err
	}

	err := e.meta.RecordConservation(batch.Epoch, batch.CheckpointHeight, batch.Idx, batch.InputTotal, batch.OutputTotal)
	if err != nil {
		e.eventRouter.PublishSettlementEvent(events.NewSettlementRejected(types.Name{}, caller, err.Error()))
		return err
	}

	logx.Info("SETTLEMENT", fmt.Sprintf("Recorded prologue for batch (%d, %d, %d)", batch.Epoch, batch.CheckpointHeight, batch.Idx))
	e.eventRouter.PublishSettlementEvent(events.NewPrologueRecorded(batch.Epoch, batch.CheckpointHeight, batch.Idx))
	return nil
}

// SettleBalance folds a netted delta into the balance accumulator for
// (typeTag, owner). Exactly one of merge/split must be nonzero. A merge
// against a missing accumulator creates it, together with the owner's
// metadata record; a split against a missing accumulator fails. When the
// value lands on exactly zero the accumulator is removed and the owner's
// metadata entry goes with it.
func (e *Engine) SettleBalance(caller types.Address, typeTag string, owner types.Address, merge, split *uint256.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	name := directory.BalanceName(typeTag, owner)

	if err := e.authorize(caller); err != nil {
		e.eventRouter.PublishSettlementEvent(events.NewSettlementRejected(name, caller, err.Error()))
		return err
	}
	if merge.IsZero() == split.IsZero() {
		err := serrors.New(serrors.ErrCodeInvariant, "exactly one of merge/split must be nonzero")
		e.eventRouter.PublishSettlementEvent(events.NewSettlementRejected(name, caller, err.Error()))
		return err
	}

	existed, err := e.dir.Exists(name)
	if err != nil {
		return err
	}

	if !existed {
		if !split.IsZero() {
			err := serrors.Newf(serrors.ErrCodeInvariant, "cannot split non-existent accumulator for owner %s", owner)
			e.eventRouter.PublishSettlementEvent(events.NewSettlementRejected(name, caller, err.Error()))
			return err
		}
		if err := e.createAccumulator(name, typeTag, owner, merge); err != nil {
			return err
		}
		e.eventRouter.PublishSettlementEvent(events.NewBalanceSettled(name, owner, typeTag, merge))
		return nil
	}

	acc, err := e.dir.BalanceOf(name)
	if err != nil {
		return err
	}
	newValue, err := Apply(acc.Value, merge, split)
	if err != nil {
		e.eventRouter.PublishSettlementEvent(events.NewSettlementRejected(name, caller, err.Error()))
		return err
	}

	if newValue.IsZero() {
		if err := e.removeAccumulator(name, owner); err != nil {
			return err
		}
		logx.Info("SETTLEMENT", fmt.Sprintf("Removed drained accumulator %s", name))
		e.eventRouter.PublishSettlementEvent(events.NewAccumulatorRemoved(name, owner, typeTag))
		return nil
	}

	acc.Value = newValue
	if err := e.dir.Update(name, directory.Balance(acc)); err != nil {
		return err
	}
	e.eventRouter.PublishSettlementEvent(events.NewBalanceSettled(name, owner, typeTag, newValue))
	return nil
}

// createAccumulator writes a fresh accumulator and attaches it to the
// owner's metadata record, creating that record if this is the owner's
// first accumulator. Both records commit in one batch.
func (e *Engine) createAccumulator(name types.Name, typeTag string, owner types.Address, value *uint256.Int) error {
	ownerName := directory.OwnerName(owner)

	meta, err := e.dir.OwnerOf(ownerName)
	switch {
	case err == nil:
		// existing owner
	case serrors.HasCode(err, serrors.ErrCodeNotFound):
		meta = &types.OwnerMetadata{Owner: owner, Accumulators: make(map[types.Name]struct{})}
	default:
		return err
	}
	meta.Accumulators[name] = struct{}{}

	return e.dir.Apply([]directory.NamedRecord{
		{Name: name, Record: directory.Balance(&types.BalanceAccumulator{Value: value.Clone()})},
		{Name: ownerName, Record: directory.Owner(meta)},
	}, nil)
}

// removeAccumulator deletes a drained accumulator and detaches it from the
// owner's metadata, deleting that record too when no accumulators remain.
func (e *Engine) removeAccumulator(name types.Name, owner types.Address) error {
	ownerName := directory.OwnerName(owner)

	meta, err := e.dir.OwnerOf(ownerName)
	if err != nil {
		return err
	}
	delete(meta.Accumulators, name)

	deletes := []types.Name{name}
	var puts []directory.NamedRecord
	if len(meta.Accumulators) == 0 {
		deletes = append(deletes, ownerName)
	} else {
		puts = append(puts, directory.NamedRecord{Name: ownerName, Record: directory.Owner(meta)})
	}
	return e.dir.Apply(puts, deletes)
}

// SettleEvents appends a checkpoint's event root to the stream's MMR and
// advances its bookkeeping. The first settlement for a stream creates its
// head; heads are never deleted.
func (e *Engine) SettleEvents(caller types.Address, streamID types.Address, newRoot *uint256.Int, eventCountDelta uint64, checkpointSeq uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	name := directory.StreamHeadName(streamID)

	if err := e.authorize(caller); err != nil {
		e.eventRouter.PublishSettlementEvent(events.NewSettlementRejected(name, caller, err.Error()))
		return err
	}

	existed, err := e.dir.Exists(name)
	if err != nil {
		return err
	}

	if !existed {
		head := &types.EventStreamHead{
			CheckpointSeq: checkpointSeq,
			NumEvents:     eventCountDelta,
			Version:       1,
		}
		head.MMR.Append(e.combiner, newRoot)
		if err := e.dir.Insert(name, directory.StreamHead(head)); err != nil {
			return err
		}
		logx.Info("SETTLEMENT", fmt.Sprintf("Created stream head %s at checkpoint %d", name, checkpointSeq))
		e.eventRouter.PublishSettlementEvent(events.NewStreamSettled(name, streamID, checkpointSeq, head.NumEvents, head.Version))
		return nil
	}

	head, err := e.dir.StreamHeadOf(name)
	if err != nil {
		return err
	}
	head.MMR.Append(e.combiner, newRoot)
	head.NumEvents += eventCountDelta
	head.CheckpointSeq = checkpointSeq
	head.Version++

	if err := e.dir.Update(name, directory.StreamHead(head)); err != nil {
		return err
	}
	e.eventRouter.PublishSettlementEvent(events.NewStreamSettled(name, streamID, checkpointSeq, head.NumEvents, head.Version))
	return nil
}

// StreamRoot folds the stream's MMR peaks into a single digest, or nil if
// the stream has never settled.
func (e *Engine) StreamRoot(streamID types.Address) (*uint256.Int, error) {
	head, err := e.StreamHead(streamID)
	if err != nil || head == nil {
		return nil, err
	}
	return head.MMR.Root(e.combiner), nil
}

// Balance returns the current accumulated value for (typeTag, owner), or
// nil if the owner has no accumulator of that type.
func (e *Engine) Balance(typeTag string, owner types.Address) (*uint256.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	name := directory.BalanceName(typeTag, owner)
	acc, err := e.dir.BalanceOf(name)
	if serrors.HasCode(err, serrors.ErrCodeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return acc.Value, nil
}

// StreamHead returns the current head for streamID, or nil if the stream
// has never settled.
func (e *Engine) StreamHead(streamID types.Address) (*types.EventStreamHead, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	name := directory.StreamHeadName(streamID)
	head, err := e.dir.StreamHeadOf(name)
	if serrors.HasCode(err, serrors.ErrCodeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return head, nil
}
