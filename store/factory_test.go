package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     StoreConfig
		wantErr bool
	}{
		{"empty type", StoreConfig{}, true},
		{"leveldb with dir", StoreConfig{Type: LevelDBStoreType, Directory: "/tmp/x"}, false},
		{"leveldb without dir", StoreConfig{Type: LevelDBStoreType}, true},
		{"bolt without dir", StoreConfig{Type: BoltStoreType}, true},
		{"postgres with dsn", StoreConfig{Type: PostgresStoreType, DSN: "postgres://x"}, false},
		{"postgres without dsn", StoreConfig{Type: PostgresStoreType}, true},
		{"memory", StoreConfig{Type: MemoryStoreType}, false},
		{"unknown", StoreConfig{Type: "redis"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateProviderMemory(t *testing.T) {
	provider, err := CreateProvider(&StoreConfig{Type: MemoryStoreType})
	require.NoError(t, err)
	defer provider.Close()

	require.NoError(t, provider.Put([]byte("k"), []byte("v")))
	got, err := provider.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestCreateProviderNilConfig(t *testing.T) {
	_, err := CreateProvider(nil)
	assert.Error(t, err)
}
