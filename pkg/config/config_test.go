package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"http://localhost:50002"}, cfg.Endpoints)
	assert.Empty(t, cfg.CreatorAddress)
	assert.Equal(t, "en", cfg.TokenLocale)
	assert.Equal(t, "*/30 * * * * *", cfg.RefreshSpec)
	assert.Equal(t, ":3003", cfg.Addr)
	assert.False(t, cfg.RedisEnabled)
	assert.False(t, cfg.HistoryEnabled)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watchlist.yaml")
	content := `
creator_address: "00112233445566778899aabbccddeeff00112233"
token:
  locale: de
chain:
  endpoints:
    - http://node-a:50002
    - http://node-b:50002
refresh:
  schedule: "*/10 * * * * *"
  max_parallel: 8
server:
  addr: ":4000"
redis:
  enabled: true
clickhouse:
  enabled: true
accounts:
  - aabbccddeeff00112233445566778899aabbccdd
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "00112233445566778899aabbccddeeff00112233", cfg.CreatorAddress)
	assert.Equal(t, "de", cfg.TokenLocale)
	assert.Equal(t, []string{"http://node-a:50002", "http://node-b:50002"}, cfg.Endpoints)
	assert.Equal(t, "*/10 * * * * *", cfg.RefreshSpec)
	assert.Equal(t, 8, cfg.MaxParallel)
	assert.Equal(t, ":4000", cfg.Addr)
	assert.True(t, cfg.RedisEnabled)
	assert.True(t, cfg.HistoryEnabled)
	assert.Equal(t, []string{"aabbccddeeff00112233445566778899aabbccdd"}, cfg.Accounts)
}

func TestLoad_EnvWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watchlist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token:\n  locale: de\n"), 0o600))

	t.Setenv("TOKEN_LOCALE", "en")
	t.Setenv("RPC_ENDPOINTS", "http://env-node:50002, http://env-node-b:50002")
	t.Setenv("WATCHLIST", "aabbccddeeff00112233445566778899aabbccdd")
	t.Setenv("CLICKHOUSE_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "en", cfg.TokenLocale)
	assert.Equal(t, []string{"http://env-node:50002", "http://env-node-b:50002"}, cfg.Endpoints)
	assert.Equal(t, []string{"aabbccddeeff00112233445566778899aabbccdd"}, cfg.Accounts)
	assert.True(t, cfg.HistoryEnabled)
}

func TestLoad_BadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watchlist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("accounts: {not: a list"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFileFallsBack(t *testing.T) {
	cfg, err := Load("/does/not/exist.yaml")
	require.NoError(t, err)
	assert.Equal(t, ":3003", cfg.Addr)
}
