package db

// DatabaseProvider abstracts the low-level keyed storage the directory and
// metadata stores sit on. The settlement engine only ever issues
// read-then-write calls scoped to a single invocation, so providers need no
// cross-call locking beyond their own internal consistency.
type DatabaseProvider interface {
	// Get retrieves a value by key; returns nil, nil when the key is absent
	Get(key []byte) ([]byte, error)

	// Put stores a key-value pair
	Put(key, value []byte) error

	// Delete removes a key-value pair
	Delete(key []byte) error

	// Has checks if a key exists
	Has(key []byte) (bool, error)

	// Close closes the database connection
	Close() error

	// Batch returns a new batch for atomic multi-record writes
	Batch() DatabaseBatch
}

// IterableProvider extends DatabaseProvider with prefix iteration, used by
// the inspection CLI to list records.
type IterableProvider interface {
	DatabaseProvider

	// IteratePrefix iterates over all key-value pairs with the given prefix.
	// The callback should return false to stop iteration.
	IteratePrefix(prefix []byte, callback func(key, value []byte) bool) error
}

// DatabaseBatch provides atomic batch operations
type DatabaseBatch interface {
	// Put adds a key-value pair to the batch
	Put(key, value []byte)

	// Delete adds a deletion to the batch
	Delete(key []byte)

	// Write commits all operations in the batch
	Write() error

	// Reset clears the batch
	Reset()

	// Close releases batch resources
	Close()
}
