package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/bardic/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bardic.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Defaults(), cfg)
	assert.True(t, cfg.Engine.ReplayOnLoad)
	assert.True(t, cfg.Server.ValidateRequests)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
store:
  kind: redis
  redis_addr: cache:6379
  ttl: 24h
server:
  validate_requests: false
engine:
  replay_on_load: false
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format, "unset keys keep defaults")
	assert.Equal(t, config.StoreRedis, cfg.Store.Kind)
	assert.Equal(t, "cache:6379", cfg.Store.RedisAddr)
	assert.Equal(t, 24*time.Hour, cfg.Store.TTL)
	assert.False(t, cfg.Engine.ReplayOnLoad)
	assert.True(t, cfg.Engine.EvaluateDirectives)
	assert.False(t, cfg.Server.ValidateRequests)
}

func TestStoreConfig_Key(t *testing.T) {
	key, err := config.StoreConfig{}.Key()
	require.NoError(t, err)
	assert.Nil(t, key)

	cfg := config.StoreConfig{EncryptionKey: "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=", MaskKeys: []string{"password"}}
	key, err = cfg.Key()
	require.NoError(t, err)
	assert.Equal(t, []byte("0123456789abcdef0123456789abcdef"), key)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "store:\n  kind: file\n")
	t.Setenv("BARDIC_STORE", "sqlite")
	t.Setenv("BARDIC_SQLITE_PATH", "/tmp/x.db")
	t.Setenv("BARDIC_REDIS_DB", "3")
	t.Setenv("BARDIC_STORE_TTL", "90m")
	t.Setenv("BARDIC_REPLAY_ON_LOAD", "false")
	t.Setenv("BARDIC_ADDR", ":9000")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.StoreSQLite, cfg.Store.Kind)
	assert.Equal(t, "/tmp/x.db", cfg.Store.SQLitePath)
	assert.Equal(t, 3, cfg.Store.RedisDB)
	assert.Equal(t, 90*time.Minute, cfg.Store.TTL)
	assert.False(t, cfg.Engine.ReplayOnLoad)
	assert.Equal(t, ":9000", cfg.Server.Addr)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "an explicit path must exist")

	_, err = config.Load(writeConfig(t, "store:\n  knd: file\n"))
	assert.Error(t, err, "unknown keys are rejected")

	_, err = config.Load(writeConfig(t, "store:\n  kind: mongo\n"))
	assert.ErrorContains(t, err, "unknown store kind")

	_, err = config.Load(writeConfig(t, "store:\n  encryption_key: c2hvcnQ=\n"))
	assert.ErrorContains(t, err, "32 bytes")

	t.Setenv("BARDIC_REDIS_DB", "many")
	_, err = config.Load(writeConfig(t, ""))
	assert.ErrorContains(t, err, "environment overrides")
}
