package store

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"settler/db"
	serrors "settler/errors"
)

func TestRecordConservation(t *testing.T) {
	s := NewGenericSettlementMetaStore(db.NewMemoryProvider())

	require.NoError(t, s.RecordConservation(1, 100, 0, uint256.NewInt(42), uint256.NewInt(42)))

	in, out, ok, err := s.GetConservation(1, 100, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(42), in.Uint64())
	assert.Equal(t, uint64(42), out.Uint64())
}

func TestRecordConservationMismatch(t *testing.T) {
	s := NewGenericSettlementMetaStore(db.NewMemoryProvider())

	err := s.RecordConservation(1, 100, 0, uint256.NewInt(42), uint256.NewInt(41))
	assert.True(t, serrors.HasCode(err, serrors.ErrCodeConservation))

	_, _, ok, err := s.GetConservation(1, 100, 0)
	require.NoError(t, err)
	assert.False(t, ok, "a rejected batch must leave no record")
}

func TestRecordConservationDuplicate(t *testing.T) {
	s := NewGenericSettlementMetaStore(db.NewMemoryProvider())

	require.NoError(t, s.RecordConservation(1, 100, 0, uint256.NewInt(1), uint256.NewInt(1)))
	err := s.RecordConservation(1, 100, 0, uint256.NewInt(1), uint256.NewInt(1))
	assert.True(t, serrors.HasCode(err, serrors.ErrCodeConflict))
}

func TestGetConservationMissing(t *testing.T) {
	s := NewGenericSettlementMetaStore(db.NewMemoryProvider())

	_, _, ok, err := s.GetConservation(9, 9, 9)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLastCheckpoint(t *testing.T) {
	s := NewGenericSettlementMetaStore(db.NewMemoryProvider())

	_, ok, err := s.LastCheckpoint(1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.RecordConservation(1, 100, 0, uint256.NewInt(1), uint256.NewInt(1)))
	require.NoError(t, s.RecordConservation(1, 101, 0, uint256.NewInt(2), uint256.NewInt(2)))

	ckpt, ok, err := s.LastCheckpoint(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(101), ckpt)

	// Epochs track their checkpoints independently.
	_, ok, err = s.LastCheckpoint(2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConservationKeysDoNotCollide(t *testing.T) {
	s := NewGenericSettlementMetaStore(db.NewMemoryProvider())

	require.NoError(t, s.RecordConservation(1, 2, 3, uint256.NewInt(10), uint256.NewInt(10)))
	require.NoError(t, s.RecordConservation(3, 2, 1, uint256.NewInt(20), uint256.NewInt(20)))

	in, _, ok, err := s.GetConservation(1, 2, 3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(10), in.Uint64())

	in, _, ok, err = s.GetConservation(3, 2, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(20), in.Uint64())
}
