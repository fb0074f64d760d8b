package sqlstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/verifier/internal/model"
	"github.com/ppiankov/verifier/internal/store"
	"github.com/ppiankov/verifier/internal/store/storetest"
)

func openSQLite(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), model.StoreConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "verifier.db"),
	}, nil)
	require.NoError(t, err)
	return s
}

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return openSQLite(t) })
}

func TestOpen_ReappliesMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verifier.db")
	cfg := model.StoreConfig{Driver: "sqlite", DSN: path}

	for i := 0; i < 3; i++ {
		s, err := Open(context.Background(), cfg, nil)
		require.NoError(t, err, "open %d", i)
		require.NoError(t, s.Close())
	}

	s, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer s.Close()

	var name string
	err = s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='records'").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "records", name)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), model.StoreConfig{Driver: "oracle"}, nil)
	assert.Error(t, err)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("VERIFIER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("VERIFIER_TEST_POSTGRES_DSN not set")
	}

	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := Open(context.Background(), model.StoreConfig{Driver: "postgres", DSN: dsn}, nil)
		require.NoError(t, err)
		_, err = s.db.Exec("TRUNCATE records")
		require.NoError(t, err)
		return s
	})
}
