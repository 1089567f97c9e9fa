package db

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/lib/pq"
)

// PostgresProvider implements DatabaseProvider on a single key-value table,
// for deployments that keep accumulator state next to the host's ledger
// database rather than in an embedded store.
type PostgresProvider struct {
	once sync.Once
	db   *sql.DB
}

// NewPostgresProvider connects with the given DSN and ensures the backing
// table exists
func NewPostgresProvider(dsn string) (DatabaseProvider, error) {
	pdb, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := pdb.Ping(); err != nil {
		pdb.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	_, err = pdb.Exec(`CREATE TABLE IF NOT EXISTS settler_records (
		key BYTEA PRIMARY KEY,
		value BYTEA NOT NULL
	)`)
	if err != nil {
		pdb.Close()
		return nil, fmt.Errorf("failed to create records table: %w", err)
	}

	return &PostgresProvider{db: pdb}, nil
}

// Get retrieves a value by key
func (p *PostgresProvider) Get(key []byte) ([]byte, error) {
	var value []byte
	err := p.db.QueryRow(`SELECT value FROM settler_records WHERE key = $1`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	return value, nil
}

// Put stores a key-value pair
func (p *PostgresProvider) Put(key, value []byte) error {
	_, err := p.db.Exec(`INSERT INTO settler_records (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Delete removes a key-value pair
func (p *PostgresProvider) Delete(key []byte) error {
	_, err := p.db.Exec(`DELETE FROM settler_records WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// Has checks if a key exists
func (p *PostgresProvider) Has(key []byte) (bool, error) {
	var found bool
	err := p.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM settler_records WHERE key = $1)`, key).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("failed to check record: %w", err)
	}
	return found, nil
}

// Close closes the database connection
func (p *PostgresProvider) Close() error {
	var err error
	p.once.Do(func() {
		err = p.db.Close()
	})
	return err
}

// Batch returns a new batch for atomic operations
func (p *PostgresProvider) Batch() DatabaseBatch {
	return &PostgresBatch{db: p.db}
}

type pgOp struct {
	key    []byte
	value  []byte
	delete bool
}

// PostgresBatch implements DatabaseBatch; all queued operations commit in
// one SQL transaction.
type PostgresBatch struct {
	db  *sql.DB
	ops []pgOp
}

// Put adds a key-value pair to the batch
func (b *PostgresBatch) Put(key, value []byte) {
	b.ops = append(b.ops, pgOp{
		key:   append([]byte(nil), key...),
		value: append([]byte(nil), value...),
	})
}

// Delete adds a deletion to the batch
func (b *PostgresBatch) Delete(key []byte) {
	b.ops = append(b.ops, pgOp{key: append([]byte(nil), key...), delete: true})
}

// Write commits all operations in the batch
func (b *PostgresBatch) Write() error {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin batch transaction: %w", err)
	}
	for _, op := range b.ops {
		if op.delete {
			_, err = tx.Exec(`DELETE FROM settler_records WHERE key = $1`, op.key)
		} else {
			_, err = tx.Exec(`INSERT INTO settler_records (key, value) VALUES ($1, $2)
				ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, op.key, op.value)
		}
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to apply batch operation: %w", err)
		}
	}
	return tx.Commit()
}

// Reset clears the batch
func (b *PostgresBatch) Reset() {
	b.ops = b.ops[:0]
}

// Close releases batch resources
func (b *PostgresBatch) Close() {
	b.ops = nil
}
