package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, BackendBadger, cfg.Storage.Backend)
	assert.False(t, cfg.Breaker.Enabled)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: "9000"
  shutdown_timeout: 5s
storage:
  backend: mongo
  mongo_uri: mongodb://db:27017
breaker:
  enabled: true
  open_timeout: 1m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("PORT", "3000")
	t.Setenv("MONGO_DATABASE", "ledger")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port, "environment overrides the file")
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, BackendMongo, cfg.Storage.Backend)
	assert.Equal(t, "mongodb://db:27017", cfg.Storage.MongoURI)
	assert.Equal(t, "ledger", cfg.Storage.MongoDatabase)
	assert.Equal(t, "transactions", cfg.Storage.MongoCollection)
	assert.True(t, cfg.Breaker.Enabled)
	assert.Equal(t, time.Minute, cfg.Breaker.OpenTimeout)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorContains(t, err, "reading config")
	})

	t.Run("bad port", func(t *testing.T) {
		t.Setenv("PORT", "eighty")
		_, err := Load("")
		assert.ErrorContains(t, err, "invalid server port")
	})

	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "postgres")
		_, err := Load("")
		assert.ErrorContains(t, err, "unknown storage backend")
	})

	t.Run("bad breaker flag", func(t *testing.T) {
		t.Setenv("BREAKER_ENABLED", "maybe")
		_, err := Load("")
		assert.ErrorContains(t, err, "BREAKER_ENABLED")
	})
}
