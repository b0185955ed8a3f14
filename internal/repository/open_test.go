package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deanDev5200/web-aspirasi/internal/config"
	"github.com/deanDev5200/web-aspirasi/internal/oxidb/oxidbtest"
)

func TestOpenSQLite(t *testing.T) {
	cfg := &config.Config{Store: config.StoreSQLite, SQLitePath: filepath.Join(t.TempDir(), "a.db")}

	store, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &SQLiteAspirasiRepo{}, store)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestOpenOxiDB(t *testing.T) {
	srv := oxidbtest.New(t, func(req map[string]any) (any, error) { return "pong", nil })
	cfg := &config.Config{Store: config.StoreOxiDB, OxiDBHost: srv.Host(), OxiDBPort: srv.Port(), PoolSize: 2}

	store, err := Open(context.Background(), cfg)
	require.NoError(t, err)

	assert.NoError(t, store.Ping(context.Background()))
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestOpenUnknownStore(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{Store: "redis"})
	assert.ErrorContains(t, err, `unknown store "redis"`)
}
