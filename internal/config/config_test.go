package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deanDev5200/web-aspirasi/internal/logger"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.HTTPAddr)
	assert.Equal(t, StoreOxiDB, cfg.Store)
	assert.Equal(t, 4444, cfg.OxiDBPort)
	assert.Equal(t, "data/admin-credentials.json", cfg.CredentialsFile)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{
		"http://localhost:5173",
		"http://localhost:3000",
		"http://localhost:8080",
	}, cfg.Origins())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ASPIRASI_STORE", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, "/tmp/x.db", cfg.SQLitePath)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Origins())
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ASPIRASI_ADDR=:9999\n"), 0o600))
	// registers a cleanup that unsets whatever the file loads
	t.Setenv("ASPIRASI_ADDR", "")
	os.Unsetenv("ASPIRASI_ADDR")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTPAddr)
}

func TestLoadMissingEnvFileIsFine(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.env"))
	assert.NoError(t, err)
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	t.Setenv("ASPIRASI_STORE", "redis")
	_, err := Load("")
	assert.ErrorContains(t, err, "unknown ASPIRASI_STORE")
}

func TestLocationJakarta(t *testing.T) {
	cfg := &Config{DisplayTZ: "Asia/Jakarta"}
	loc := cfg.Location()
	assert.Equal(t, "Asia/Jakarta", loc.String())
	_, offset := time.Date(2024, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, 7*60*60, offset)
}

func TestLocationFallback(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })

	cfg := &Config{DisplayTZ: "Not/AZone"}
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Contains(t, buf.String(), "Not/AZone")
}
