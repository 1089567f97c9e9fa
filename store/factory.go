package store

import (
	"fmt"

	"settler/db"
)

// StoreType represents the type of storage backend
type StoreType string

const (
	// LevelDBStoreType uses the LevelDB implementation
	LevelDBStoreType StoreType = "leveldb"

	// BoltStoreType uses the bbolt implementation
	BoltStoreType StoreType = "bolt"

	// PostgresStoreType uses the Postgres implementation
	PostgresStoreType StoreType = "postgres"

	// MemoryStoreType keeps everything in process memory
	MemoryStoreType StoreType = "memory"
)

// StoreConfig holds configuration for creating storage providers
type StoreConfig struct {
	// Type specifies which backend to use
	Type StoreType `json:"type" yaml:"type"`

	// Directory is the database directory or file path (file-based backends)
	Directory string `json:"directory" yaml:"directory"`

	// DSN is the connection string (postgres)
	DSN string `json:"dsn" yaml:"dsn"`
}

// Validate validates the store configuration
func (sc *StoreConfig) Validate() error {
	switch sc.Type {
	case "":
		return fmt.Errorf("store type cannot be empty")
	case LevelDBStoreType, BoltStoreType:
		if sc.Directory == "" {
			return fmt.Errorf("directory cannot be empty for %s", sc.Type)
		}
	case PostgresStoreType:
		if sc.DSN == "" {
			return fmt.Errorf("dsn cannot be empty for postgres")
		}
	case MemoryStoreType:
		// nothing to validate
	default:
		return fmt.Errorf("unsupported store type: %s", sc.Type)
	}
	return nil
}

// CreateProvider creates the configured database provider
func CreateProvider(config *StoreConfig) (db.DatabaseProvider, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	switch config.Type {
	case LevelDBStoreType:
		return db.NewLevelDBProvider(config.Directory)
	case BoltStoreType:
		return db.NewBoltProvider(config.Directory)
	case PostgresStoreType:
		return db.NewPostgresProvider(config.DSN)
	case MemoryStoreType:
		return db.NewMemoryProvider(), nil
	}
	return nil, fmt.Errorf("unsupported store type: %s", config.Type)
}
