package store

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"

	"settler/db"
	"settler/digest"
	serrors "settler/errors"
)

// SettlementMetaStore records what each settlement batch moved. This is
// intentionally separate from the accumulator records themselves.
// Keys:
// - PrefixConservation + <epoch u64 | checkpoint u64 | idx u64> => input (32 bytes) ++ output (32 bytes)
// - PrefixLastCheckpoint + <epoch u64> => checkpoint u64

type SettlementMetaStore interface {
	RecordConservation(epoch, checkpoint, idx uint64, input, output *uint256.Int) error
	GetConservation(epoch, checkpoint, idx uint64) (input, output *uint256.Int, ok bool, err error)
	LastCheckpoint(epoch uint64) (uint64, bool, error)
}

type GenericSettlementMetaStore struct {
	provider db.DatabaseProvider
}

func NewGenericSettlementMetaStore(provider db.DatabaseProvider) *GenericSettlementMetaStore {
	return &GenericSettlementMetaStore{provider: provider}
}

func (s *GenericSettlementMetaStore) conservationKey(epoch, checkpoint, idx uint64) []byte {
	key := make([]byte, len(PrefixConservation)+24)
	copy(key, PrefixConservation)
	binary.BigEndian.PutUint64(key[len(PrefixConservation):], epoch)
	binary.BigEndian.PutUint64(key[len(PrefixConservation)+8:], checkpoint)
	binary.BigEndian.PutUint64(key[len(PrefixConservation)+16:], idx)
	return key
}

func (s *GenericSettlementMetaStore) lastCheckpointKey(epoch uint64) []byte {
	key := make([]byte, len(PrefixLastCheckpoint)+8)
	copy(key, PrefixLastCheckpoint)
	binary.BigEndian.PutUint64(key[len(PrefixLastCheckpoint):], epoch)
	return key
}

// RecordConservation enforces the batch conservation invariant and persists
// the totals. A second record for the same (epoch, checkpoint, idx) is a
// conflict: the host promises exactly-once execution, so a duplicate means
// a replay upstream and must surface as a typed failure.
func (s *GenericSettlementMetaStore) RecordConservation(epoch, checkpoint, idx uint64, input, output *uint256.Int) error {
	if input.Cmp(output) != 0 {
		return serrors.Newf(serrors.ErrCodeConservation,
			"batch totals differ: input %s, output %s", input.Dec(), output.Dec())
	}

	key := s.conservationKey(epoch, checkpoint, idx)
	existed, err := s.provider.Has(key)
	if err != nil {
		return fmt.Errorf("could not check conservation record: %w", err)
	}
	if existed {
		return serrors.Newf(serrors.ErrCodeConflict,
			"settlement (%d, %d, %d) already recorded", epoch, checkpoint, idx)
	}

	value := make([]byte, 2*digest.Size)
	in := digest.Encode(input)
	out := digest.Encode(output)
	copy(value, in[:])
	copy(value[digest.Size:], out[:])

	batch := s.provider.Batch()
	defer batch.Close()
	batch.Put(key, value)

	ckpt := make([]byte, 8)
	binary.BigEndian.PutUint64(ckpt, checkpoint)
	batch.Put(s.lastCheckpointKey(epoch), ckpt)

	if err := batch.Write(); err != nil {
		return fmt.Errorf("failed to store conservation record for (%d, %d, %d): %w", epoch, checkpoint, idx, err)
	}
	return nil
}

func (s *GenericSettlementMetaStore) GetConservation(epoch, checkpoint, idx uint64) (*uint256.Int, *uint256.Int, bool, error) {
	value, err := s.provider.Get(s.conservationKey(epoch, checkpoint, idx))
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to get conservation record for (%d, %d, %d): %w", epoch, checkpoint, idx, err)
	}
	if value == nil {
		return nil, nil, false, nil
	}
	if len(value) != 2*digest.Size {
		return nil, nil, false, fmt.Errorf("invalid conservation record length: %d", len(value))
	}

	var in, out [digest.Size]byte
	copy(in[:], value[:digest.Size])
	copy(out[:], value[digest.Size:])
	return digest.Decode(in), digest.Decode(out), true, nil
}

func (s *GenericSettlementMetaStore) LastCheckpoint(epoch uint64) (uint64, bool, error) {
	value, err := s.provider.Get(s.lastCheckpointKey(epoch))
	if err != nil {
		return 0, false, fmt.Errorf("failed to get last checkpoint for epoch %d: %w", epoch, err)
	}
	if len(value) == 0 {
		return 0, false, nil
	}
	if len(value) != 8 {
		return 0, false, fmt.Errorf("invalid checkpoint marker length: %d", len(value))
	}
	return binary.BigEndian.Uint64(value), true, nil
}
