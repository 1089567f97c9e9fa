package directory

import (
	"fmt"

	"settler/db"
	serrors "settler/errors"
	"settler/types"
)

// Database key prefix for directory records
const PrefixRecord = "acc:"

// Directory is the keyed store mapping derived names to accumulator
// records. Lookups are typed: asking for a record under the wrong tag is a
// caller bug and fails with a type mismatch, never a silent reinterpret.
type Directory struct {
	provider db.DatabaseProvider
}

// NewDirectory creates a directory on top of the given provider
func NewDirectory(provider db.DatabaseProvider) (*Directory, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}
	return &Directory{provider: provider}, nil
}

func (d *Directory) dbKey(name types.Name) []byte {
	key := make([]byte, len(PrefixRecord)+len(name))
	copy(key, PrefixRecord)
	copy(key[len(PrefixRecord):], name[:])
	return key
}

// Exists checks whether any record is stored under name.
func (d *Directory) Exists(name types.Name) (bool, error) {
	found, err := d.provider.Has(d.dbKey(name))
	if err != nil {
		return false, fmt.Errorf("could not check existence of %s: %w", name, err)
	}
	return found, nil
}

// Insert stores a new record under name; fails if one is already present.
func (d *Directory) Insert(name types.Name, rec Record) error {
	existed, err := d.Exists(name)
	if err != nil {
		return err
	}
	if existed {
		return serrors.Newf(serrors.ErrCodeConflict, "record %s already exists", name)
	}
	if err := d.provider.Put(d.dbKey(name), marshalRecord(rec)); err != nil {
		return fmt.Errorf("failed to write record %s: %w", name, err)
	}
	return nil
}

// Update overwrites the record under name; fails if absent or if the
// stored record carries a different tag.
func (d *Directory) Update(name types.Name, rec Record) error {
	existing, err := d.get(name)
	if err != nil {
		return err
	}
	if existing.Tag() != rec.Tag() {
		return serrors.Newf(serrors.ErrCodeTypeMismatch, "record %s holds %s, not %s", name, existing.Tag(), rec.Tag())
	}
	if err := d.provider.Put(d.dbKey(name), marshalRecord(rec)); err != nil {
		return fmt.Errorf("failed to write record %s: %w", name, err)
	}
	return nil
}

// Delete removes the record under name and returns it; fails if absent.
func (d *Directory) Delete(name types.Name) (Record, error) {
	rec, err := d.get(name)
	if err != nil {
		return nil, err
	}
	if err := d.provider.Delete(d.dbKey(name)); err != nil {
		return nil, fmt.Errorf("failed to delete record %s: %w", name, err)
	}
	return rec, nil
}

func (d *Directory) get(name types.Name) (Record, error) {
	data, err := d.provider.Get(d.dbKey(name))
	if err != nil {
		return nil, fmt.Errorf("could not get record %s: %w", name, err)
	}
	if data == nil {
		return nil, serrors.Newf(serrors.ErrCodeNotFound, "record %s does not exist", name)
	}
	return unmarshalRecord(data)
}

// BalanceOf returns the balance accumulator stored under name.
func (d *Directory) BalanceOf(name types.Name) (*types.BalanceAccumulator, error) {
	rec, err := d.get(name)
	if err != nil {
		return nil, err
	}
	bal, ok := rec.(balanceRecord)
	if !ok {
		return nil, serrors.Newf(serrors.ErrCodeTypeMismatch, "record %s holds %s, not balance", name, rec.Tag())
	}
	return bal.acc, nil
}

// StreamHeadOf returns the event stream head stored under name.
func (d *Directory) StreamHeadOf(name types.Name) (*types.EventStreamHead, error) {
	rec, err := d.get(name)
	if err != nil {
		return nil, err
	}
	head, ok := rec.(streamHeadRecord)
	if !ok {
		return nil, serrors.Newf(serrors.ErrCodeTypeMismatch, "record %s holds %s, not stream_head", name, rec.Tag())
	}
	return head.head, nil
}

// OwnerOf returns the owner metadata record stored under name.
func (d *Directory) OwnerOf(name types.Name) (*types.OwnerMetadata, error) {
	rec, err := d.get(name)
	if err != nil {
		return nil, err
	}
	owner, ok := rec.(ownerRecord)
	if !ok {
		return nil, serrors.Newf(serrors.ErrCodeTypeMismatch, "record %s holds %s, not owner", name, rec.Tag())
	}
	return owner.meta, nil
}

// NamedRecord pairs a record with the name it is stored under.
type NamedRecord struct {
	Name   types.Name
	Record Record
}

// Apply commits a group of puts and deletes in one provider batch, so a
// settlement's record mutations land all-or-nothing.
func (d *Directory) Apply(puts []NamedRecord, deletes []types.Name) error {
	batch := d.provider.Batch()
	defer batch.Close()

	for _, p := range puts {
		batch.Put(d.dbKey(p.Name), marshalRecord(p.Record))
	}
	for _, n := range deletes {
		batch.Delete(d.dbKey(n))
	}

	if err := batch.Write(); err != nil {
		return fmt.Errorf("failed to commit record batch: %w", err)
	}
	return nil
}
