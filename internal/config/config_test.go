package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresTokenAndAdmin(t *testing.T) {
	t.Setenv("TOKEN", "")
	t.Setenv("ADMIN_ID", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TOKEN")

	t.Setenv("TOKEN", "123:abc")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ADMIN_ID")

	t.Setenv("ADMIN_ID", "not-a-number")
	_, err = Load()
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TOKEN", "123:abc")
	t.Setenv("ADMIN_ID", "42")
	t.Setenv("ANONRELAY_DB_PATH", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("METRICS_ADDR", "")
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.Token)
	assert.Equal(t, int64(42), cfg.SeedAdminID)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.MetricsAddr)
	assert.True(t, strings.HasSuffix(cfg.DBPath, filepath.Join("anonrelay", "anonrelay.db")), cfg.DBPath)
}

func TestLoadExplicitValues(t *testing.T) {
	t.Setenv("TOKEN", "123:abc")
	t.Setenv("ADMIN_ID", "42")
	t.Setenv("ANONRELAY_DB_PATH", "/tmp/relay.db")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("METRICS_ADDR", ":9100")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/relay.db", cfg.DBPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
}
