package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ExpandsEnvAndAppliesDefaults(t *testing.T) {
	t.Setenv("TEST_YOUTUBE_KEY", "yt-key")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
database:
  host: localhost
  user: app
  dbname: viral
sources:
  youtube:
    api_key: ${TEST_YOUTUBE_KEY}
delivery:
  digest_size: 5
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "yt-key", cfg.Sources.YouTube.APIKey)
	assert.Equal(t, 5, cfg.Delivery.DigestSize)
	assert.Equal(t, 24*time.Hour, cfg.Delivery.Interval)
	assert.Equal(t, 10*time.Second, cfg.Sources.Timeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "host=localhost port=5432 user=app password= dbname=viral sslmode=disable", cfg.Database.DSN())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoad_RejectsNonPositiveInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
delivery:
  interval: -1h
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delivery.interval must be positive")
}

func TestLoad_RejectsNegativeWorkers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
delivery:
  workers: -2
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delivery.workers")
}
