package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "fetch.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_File(t *testing.T) {
	p := writeFile(t, `
client:
  max_outstanding: 4
  max_deferred: 16
  request_id_header: X-Request-ID
net:
  dial_timeout: 2s
  write_timeout: 500ms
  max_response_bytes: 1024
log:
  level: debug
  json: true
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Client.MaxOutstanding)
	assert.Equal(t, 16, cfg.Client.MaxDeferred)
	assert.Equal(t, "X-Request-ID", cfg.Client.RequestIDHeader)
	assert.Equal(t, 2*time.Second, cfg.Net.DialTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Net.WriteTimeout)
	assert.Equal(t, 30*time.Second, cfg.Net.ReadTimeout, "unset keys keep defaults")
	assert.Equal(t, int64(1024), cfg.Net.MaxResponseBytes)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
}

func TestLoad_Malformed(t *testing.T) {
	p := writeFile(t, "client: [not, a, map")
	_, err := Load(p)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	p := writeFile(t, "client:\n  max_outstanding: 4\n")
	t.Setenv("FETCH_MAX_OUTSTANDING", "9")
	t.Setenv("FETCH_MAX_DEFERRED", "3")
	t.Setenv("FETCH_DISABLE_POOLING", "true")
	t.Setenv("FETCH_READ_TIMEOUT", "1m")
	t.Setenv("FETCH_LOG_LEVEL", "warn")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Client.MaxOutstanding)
	assert.Equal(t, 3, cfg.Client.MaxDeferred)
	assert.True(t, cfg.Client.DisablePooling)
	assert.Equal(t, time.Minute, cfg.Net.ReadTimeout)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("FETCH_DIAL_TIMEOUT", "soon")
	_, err := Load("")
	assert.Error(t, err)
}
