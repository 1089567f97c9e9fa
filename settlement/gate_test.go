package settlement

import (
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"settler/db"
	"settler/digest"
	"settler/directory"
	serrors "settler/errors"
	"settler/events"
	"settler/store"
	"settler/types"
)

var (
	systemAddr = addr(0xAA)
	zero       = uint256.NewInt(0)
)

func addr(b byte) types.Address {
	var a types.Address
	a[0] = b
	return a
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	provider := db.NewMemoryProvider()
	dir, err := directory.NewDirectory(provider)
	require.NoError(t, err)
	meta := store.NewGenericSettlementMetaStore(provider)
	return NewEngine(dir, meta, nil, digest.Blake2b{}, systemAddr)
}

func TestAuthorization(t *testing.T) {
	engine := newTestEngine(t)
	intruder := addr(0xBB)

	err := engine.SettleBalance(intruder, "coin", addr(1), uint256.NewInt(10), zero)
	assert.True(t, serrors.HasCode(err, serrors.ErrCodeUnauthorized))

	err = engine.SettleEvents(intruder, addr(2), uint256.NewInt(1), 1, 1)
	assert.True(t, serrors.HasCode(err, serrors.ErrCodeUnauthorized))

	err = engine.Prologue(intruder, &types.SettlementBatch{InputTotal: zero, OutputTotal: zero})
	assert.True(t, serrors.HasCode(err, serrors.ErrCodeUnauthorized))
}

func TestSettleBalanceCreatesAccumulator(t *testing.T) {
	engine := newTestEngine(t)
	owner := addr(1)

	require.NoError(t, engine.SettleBalance(systemAddr, "coin", owner, uint256.NewInt(100), zero))

	value, err := engine.Balance("coin", owner)
	require.NoError(t, err)
	require.NotNil(t, value)
	assert.Equal(t, uint64(100), value.Uint64())
}

func TestSettleBalanceMergeAccumulates(t *testing.T) {
	engine := newTestEngine(t)
	owner := addr(1)

	require.NoError(t, engine.SettleBalance(systemAddr, "coin", owner, uint256.NewInt(100), zero))
	require.NoError(t, engine.SettleBalance(systemAddr, "coin", owner, uint256.NewInt(50), zero))

	value, err := engine.Balance("coin", owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(150), value.Uint64())
}

func TestSettleBalanceSplit(t *testing.T) {
	engine := newTestEngine(t)
	owner := addr(1)

	require.NoError(t, engine.SettleBalance(systemAddr, "coin", owner, uint256.NewInt(100), zero))
	require.NoError(t, engine.SettleBalance(systemAddr, "coin", owner, zero, uint256.NewInt(30)))

	value, err := engine.Balance("coin", owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(70), value.Uint64())
}

func TestSettleBalanceSplitBelowZero(t *testing.T) {
	engine := newTestEngine(t)
	owner := addr(1)

	require.NoError(t, engine.SettleBalance(systemAddr, "coin", owner, uint256.NewInt(100), zero))
	err := engine.SettleBalance(systemAddr, "coin", owner, zero, uint256.NewInt(101))
	assert.True(t, serrors.HasCode(err, serrors.ErrCodeInsufficient))

	value, err := engine.Balance("coin", owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), value.Uint64(), "a failed split must leave the value unchanged")
}

func TestSettleBalanceSplitMissingAccumulator(t *testing.T) {
	engine := newTestEngine(t)

	err := engine.SettleBalance(systemAddr, "coin", addr(1), zero, uint256.NewInt(1))
	assert.True(t, serrors.HasCode(err, serrors.ErrCodeInvariant))
}

func TestSettleBalanceExactlyOneDelta(t *testing.T) {
	engine := newTestEngine(t)
	owner := addr(1)

	err := engine.SettleBalance(systemAddr, "coin", owner, zero, zero)
	assert.True(t, serrors.HasCode(err, serrors.ErrCodeInvariant), "both zero must fail")

	err = engine.SettleBalance(systemAddr, "coin", owner, uint256.NewInt(1), uint256.NewInt(1))
	assert.True(t, serrors.HasCode(err, serrors.ErrCodeInvariant), "both nonzero must fail")
}

func TestSettleBalanceDrainRemovesAccumulator(t *testing.T) {
	engine := newTestEngine(t)
	owner := addr(1)

	require.NoError(t, engine.SettleBalance(systemAddr, "coin", owner, uint256.NewInt(100), zero))
	require.NoError(t, engine.SettleBalance(systemAddr, "coin", owner, zero, uint256.NewInt(100)))

	value, err := engine.Balance("coin", owner)
	require.NoError(t, err)
	assert.Nil(t, value, "a drained accumulator must be removed, not kept at zero")

	// A later merge starts from scratch.
	require.NoError(t, engine.SettleBalance(systemAddr, "coin", owner, uint256.NewInt(5), zero))
	value, err = engine.Balance("coin", owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), value.Uint64())
}

func TestOwnerMetadataLifecycle(t *testing.T) {
	engine := newTestEngine(t)
	owner := addr(1)
	ownerName := directory.OwnerName(owner)

	_, err := engine.dir.OwnerOf(ownerName)
	assert.True(t, serrors.HasCode(err, serrors.ErrCodeNotFound))

	require.NoError(t, engine.SettleBalance(systemAddr, "coin", owner, uint256.NewInt(10), zero))
	require.NoError(t, engine.SettleBalance(systemAddr, "token", owner, uint256.NewInt(20), zero))

	meta, err := engine.dir.OwnerOf(ownerName)
	require.NoError(t, err)
	assert.Equal(t, owner, meta.Owner)
	assert.Len(t, meta.Accumulators, 2)
	assert.Contains(t, meta.Accumulators, directory.BalanceName("coin", owner))
	assert.Contains(t, meta.Accumulators, directory.BalanceName("token", owner))

	// Draining one accumulator detaches it but keeps the owner record.
	require.NoError(t, engine.SettleBalance(systemAddr, "coin", owner, zero, uint256.NewInt(10)))
	meta, err = engine.dir.OwnerOf(ownerName)
	require.NoError(t, err)
	assert.Len(t, meta.Accumulators, 1)
	assert.Contains(t, meta.Accumulators, directory.BalanceName("token", owner))

	// Draining the last accumulator removes the owner record too.
	require.NoError(t, engine.SettleBalance(systemAddr, "token", owner, zero, uint256.NewInt(20)))
	_, err = engine.dir.OwnerOf(ownerName)
	assert.True(t, serrors.HasCode(err, serrors.ErrCodeNotFound))
}

func TestSettleEventsCreatesHead(t *testing.T) {
	engine := newTestEngine(t)
	stream := addr(7)

	require.NoError(t, engine.SettleEvents(systemAddr, stream, uint256.NewInt(111), 3, 10))

	head, err := engine.StreamHead(stream)
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.Equal(t, uint64(3), head.NumEvents)
	assert.Equal(t, uint64(10), head.CheckpointSeq)
	assert.Equal(t, uint64(1), head.Version)
	assert.Equal(t, 1, head.MMR.PeakCount())
}

func TestSettleEventsAdvancesHead(t *testing.T) {
	engine := newTestEngine(t)
	stream := addr(7)

	require.NoError(t, engine.SettleEvents(systemAddr, stream, uint256.NewInt(111), 3, 10))
	require.NoError(t, engine.SettleEvents(systemAddr, stream, uint256.NewInt(222), 4, 11))

	head, err := engine.StreamHead(stream)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), head.NumEvents)
	assert.Equal(t, uint64(11), head.CheckpointSeq)
	assert.Equal(t, uint64(2), head.Version)

	c := digest.Blake2b{}
	want := c.Combine(uint256.NewInt(111), uint256.NewInt(222))
	root, err := engine.StreamRoot(stream)
	require.NoError(t, err)
	assert.True(t, root.Eq(want), "the two roots must carry into one peak")
}

func TestStreamRootMissingStream(t *testing.T) {
	engine := newTestEngine(t)

	root, err := engine.StreamRoot(addr(9))
	require.NoError(t, err)
	assert.Nil(t, root)
}

func TestPrologueRecordsConservation(t *testing.T) {
	engine := newTestEngine(t)
	batch := &types.SettlementBatch{
		Epoch:            1,
		CheckpointHeight: 10,
		Idx:              0,
		InputTotal:       uint256.NewInt(500),
		OutputTotal:      uint256.NewInt(500),
	}
	require.NoError(t, engine.Prologue(systemAddr, batch))

	in, out, ok, err := engine.meta.GetConservation(1, 10, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(500), in.Uint64())
	assert.Equal(t, uint64(500), out.Uint64())
}

func TestPrologueConservationViolation(t *testing.T) {
	engine := newTestEngine(t)
	batch := &types.SettlementBatch{
		Epoch:       1,
		InputTotal:  uint256.NewInt(500),
		OutputTotal: uint256.NewInt(499),
	}
	err := engine.Prologue(systemAddr, batch)
	assert.True(t, serrors.HasCode(err, serrors.ErrCodeConservation))
}

func TestPrologueDuplicateBatch(t *testing.T) {
	engine := newTestEngine(t)
	batch := &types.SettlementBatch{
		Epoch:            2,
		CheckpointHeight: 5,
		Idx:              1,
		InputTotal:       uint256.NewInt(10),
		OutputTotal:      uint256.NewInt(10),
	}
	require.NoError(t, engine.Prologue(systemAddr, batch))

	err := engine.Prologue(systemAddr, batch)
	assert.True(t, serrors.HasCode(err, serrors.ErrCodeConflict), "a replayed batch must surface as a conflict")
}

func TestSettlementEventsPublished(t *testing.T) {
	provider := db.NewMemoryProvider()
	dir, err := directory.NewDirectory(provider)
	require.NoError(t, err)
	bus := events.NewEventBus()
	engine := NewEngine(dir, store.NewGenericSettlementMetaStore(provider), events.NewEventRouter(bus), digest.Blake2b{}, systemAddr)

	_, ch := bus.Subscribe()
	owner := addr(1)

	require.NoError(t, engine.SettleBalance(systemAddr, "coin", owner, uint256.NewInt(10), zero))

	select {
	case ev := <-ch:
		settled, ok := ev.(*events.BalanceSettled)
		require.True(t, ok, "expected a BalanceSettled event, got %s", ev.Type())
		assert.Equal(t, owner, settled.Owner())
		assert.Equal(t, "coin", settled.TypeTag())
		assert.Equal(t, uint64(10), settled.NewValue().Uint64())
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	require.NoError(t, engine.SettleBalance(systemAddr, "coin", owner, zero, uint256.NewInt(10)))
	select {
	case ev := <-ch:
		_, ok := ev.(*events.AccumulatorRemoved)
		require.True(t, ok, "expected an AccumulatorRemoved event, got %s", ev.Type())
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}
