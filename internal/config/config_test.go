package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"LIBRARY_DB_PATH", "LIBRARY_HTTP_ADDR", "LIBRARY_LOG_MODE",
		"LIBRARY_LOG_HASH_SALT", "LIBRARY_CORS_ORIGINS", "LIBRARY_OVERDUE_SWEEP",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "library.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  path: /var/lib/library/circulation.db
http:
  addr: ":9000"
  cors_origins: ["https://library.example.org"]
log:
  mode: production
overdue:
  sweep: 1h
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/library/circulation.db", cfg.DBPath)
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, "production", cfg.LogMode)
	assert.Equal(t, []string{"https://library.example.org"}, cfg.CORSOrigins)
	assert.Equal(t, time.Hour, cfg.OverdueSweep)

	t.Setenv("LIBRARY_HTTP_ADDR", ":7000")
	t.Setenv("LIBRARY_CORS_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("LIBRARY_OVERDUE_SWEEP", "15m")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.HTTPAddr)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 15*time.Minute, cfg.OverdueSweep)
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("overdue:\n  sweep: soon\n"), 0o600))
	_, err := Load(bad)
	assert.Error(t, err)

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("database: [unclosed"), 0o600))
	_, err = Load(broken)
	assert.Error(t, err)

	t.Setenv("LIBRARY_OVERDUE_SWEEP", "-5m")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.DBPath = " "
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.CORSOrigins = []string{"*"}
	assert.Error(t, cfg.Validate())
}
