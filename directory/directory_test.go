package directory

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"settler/db"
	"settler/digest"
	serrors "settler/errors"
	"settler/types"
)

func testAddr(b byte) types.Address {
	var a types.Address
	a[0] = b
	return a
}

func newTestDirectory(t *testing.T) *Directory {
	t.Helper()
	dir, err := NewDirectory(db.NewMemoryProvider())
	require.NoError(t, err)
	return dir
}

func TestDeriveNameDeterministic(t *testing.T) {
	owner := testAddr(1)
	assert.Equal(t, BalanceName("coin", owner), BalanceName("coin", owner))
	assert.NotEqual(t, BalanceName("coin", owner), BalanceName("token", owner))
	assert.NotEqual(t, BalanceName("coin", owner), BalanceName("coin", testAddr(2)))
}

func TestDeriveNameDomainSeparation(t *testing.T) {
	owner := testAddr(1)
	balance := BalanceName("", owner)
	stream := StreamHeadName(owner)
	meta := OwnerName(owner)

	assert.NotEqual(t, balance, stream)
	assert.NotEqual(t, balance, meta)
	assert.NotEqual(t, stream, meta)
}

func TestInsertAndGet(t *testing.T) {
	dir := newTestDirectory(t)
	name := BalanceName("coin", testAddr(1))

	err := dir.Insert(name, Balance(&types.BalanceAccumulator{Value: uint256.NewInt(100)}))
	require.NoError(t, err)

	acc, err := dir.BalanceOf(name)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), acc.Value.Uint64())
}

func TestInsertConflict(t *testing.T) {
	dir := newTestDirectory(t)
	name := BalanceName("coin", testAddr(1))

	require.NoError(t, dir.Insert(name, Balance(&types.BalanceAccumulator{Value: uint256.NewInt(1)})))
	err := dir.Insert(name, Balance(&types.BalanceAccumulator{Value: uint256.NewInt(2)}))
	assert.True(t, serrors.HasCode(err, serrors.ErrCodeConflict))
}

func TestGetMissing(t *testing.T) {
	dir := newTestDirectory(t)
	_, err := dir.BalanceOf(BalanceName("coin", testAddr(9)))
	assert.True(t, serrors.HasCode(err, serrors.ErrCodeNotFound))
}

func TestTypedGetMismatch(t *testing.T) {
	dir := newTestDirectory(t)
	name := BalanceName("coin", testAddr(1))
	require.NoError(t, dir.Insert(name, Balance(&types.BalanceAccumulator{Value: uint256.NewInt(1)})))

	_, err := dir.StreamHeadOf(name)
	assert.True(t, serrors.HasCode(err, serrors.ErrCodeTypeMismatch))
	_, err = dir.OwnerOf(name)
	assert.True(t, serrors.HasCode(err, serrors.ErrCodeTypeMismatch))
}

func TestUpdate(t *testing.T) {
	dir := newTestDirectory(t)
	name := BalanceName("coin", testAddr(1))

	err := dir.Update(name, Balance(&types.BalanceAccumulator{Value: uint256.NewInt(1)}))
	assert.True(t, serrors.HasCode(err, serrors.ErrCodeNotFound), "update of a missing record must fail")

	require.NoError(t, dir.Insert(name, Balance(&types.BalanceAccumulator{Value: uint256.NewInt(1)})))
	require.NoError(t, dir.Update(name, Balance(&types.BalanceAccumulator{Value: uint256.NewInt(2)})))

	acc, err := dir.BalanceOf(name)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), acc.Value.Uint64())

	err = dir.Update(name, Owner(&types.OwnerMetadata{Owner: testAddr(1)}))
	assert.True(t, serrors.HasCode(err, serrors.ErrCodeTypeMismatch), "update must not change a record's tag")
}

func TestDelete(t *testing.T) {
	dir := newTestDirectory(t)
	name := BalanceName("coin", testAddr(1))

	_, err := dir.Delete(name)
	assert.True(t, serrors.HasCode(err, serrors.ErrCodeNotFound), "delete of a missing record must fail")

	require.NoError(t, dir.Insert(name, Balance(&types.BalanceAccumulator{Value: uint256.NewInt(7)})))
	rec, err := dir.Delete(name)
	require.NoError(t, err)
	assert.Equal(t, TagBalance, rec.Tag())

	existed, err := dir.Exists(name)
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestStreamHeadRoundTrip(t *testing.T) {
	dir := newTestDirectory(t)
	c := digest.Blake2b{}
	name := StreamHeadName(testAddr(3))

	head := &types.EventStreamHead{CheckpointSeq: 42, NumEvents: 17, Version: 5}
	head.MMR.Append(c, uint256.NewInt(1))
	head.MMR.Append(c, uint256.NewInt(2))
	head.MMR.Append(c, uint256.NewInt(3))

	require.NoError(t, dir.Insert(name, StreamHead(head)))

	got, err := dir.StreamHeadOf(name)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got.CheckpointSeq)
	assert.Equal(t, uint64(17), got.NumEvents)
	assert.Equal(t, uint64(5), got.Version)
	assert.True(t, got.MMR.Equal(&head.MMR), "peak positions must survive the round trip")
}

func TestOwnerRoundTrip(t *testing.T) {
	dir := newTestDirectory(t)
	owner := testAddr(4)
	name := OwnerName(owner)

	meta := &types.OwnerMetadata{Owner: owner, Accumulators: map[types.Name]struct{}{
		BalanceName("coin", owner):  {},
		BalanceName("token", owner): {},
	}}
	require.NoError(t, dir.Insert(name, Owner(meta)))

	got, err := dir.OwnerOf(name)
	require.NoError(t, err)
	assert.Equal(t, owner, got.Owner)
	assert.Equal(t, meta.Accumulators, got.Accumulators)
}

func TestApplyAtomicBatch(t *testing.T) {
	dir := newTestDirectory(t)
	owner := testAddr(5)
	balName := BalanceName("coin", owner)
	ownerName := OwnerName(owner)

	require.NoError(t, dir.Insert(balName, Balance(&types.BalanceAccumulator{Value: uint256.NewInt(1)})))

	err := dir.Apply([]NamedRecord{
		{Name: ownerName, Record: Owner(&types.OwnerMetadata{Owner: owner})},
	}, []types.Name{balName})
	require.NoError(t, err)

	existed, err := dir.Exists(balName)
	require.NoError(t, err)
	assert.False(t, existed, "batched delete must land")

	_, err = dir.OwnerOf(ownerName)
	assert.NoError(t, err, "batched put must land")
}
