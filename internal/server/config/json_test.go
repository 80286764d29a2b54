package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := writeTempJSON(t, dir, "tipjar.json", map[string]any{
		"endpoint_addr_http": "www.example:9000",
		"database_dsn":       "memory://",
		"gateway_key_secret": "from-json",
		"gateway_timeout":    "3s",
		"store_timeout":      2000000000,
		"s3_bucket":          "evidence",
		"backfill_schedule":  "@daily",
	})

	t.Run("loads from json", func(t *testing.T) {
		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg, []string{"-config", path})

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrHTTP)
		assert.Equal(t, "memory://", cfg.DatabaseDSN)
		assert.Equal(t, "from-json", cfg.GatewayKeySecret)
		assert.Equal(t, 3*time.Second, cfg.GatewayTimeout)
		assert.Equal(t, 2*time.Second, cfg.StoreTimeout)
		assert.Equal(t, "evidence", cfg.S3Bucket)
		assert.Equal(t, "@daily", cfg.BackfillSchedule)
		assert.Equal(t, "INR", cfg.Currency, "keys missing from the file keep defaults")
	})

	t.Run("no config flag leaves values untouched", func(t *testing.T) {
		cfg := &Config{EndpointAddrHTTP: "defaults:1234", StoreTimeout: time.Minute}
		parseJson(cfg, []string{"-a", ":1"})

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrHTTP)
		assert.Equal(t, time.Minute, cfg.StoreTimeout)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		require.Panics(t, func() { parseJson(&Config{}, []string{"-c", bad}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		require.Panics(t, func() { parseJson(&Config{}, []string{"-c", filepath.Join(dir, "nope.json")}) })
	})
}
