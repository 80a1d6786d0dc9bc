package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tradedash.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[api]
base_url = "https://bot.example.com/api"
timeout_ms = 5000

[log]
output = "stdout"
severity = "debug"
`), 0600))

	conf, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "https://bot.example.com/api", conf.API.BaseURL)
	require.Equal(t, 5000, conf.API.TimeoutMs)
	require.Equal(t, "stdout", conf.Log.Output)
	require.Equal(t, "debug", conf.Log.Severity)
	require.NotEmpty(t, conf.API.StatePath)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	conf, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	require.Equal(t, "stderr", conf.Log.Output)
	require.Equal(t, "info", conf.Log.Severity)
}

func TestLoadConfigRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte(`[api`), 0600))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestClientConfigEnvOverride(t *testing.T) {
	t.Setenv("TRADEDASH_API_URL", "https://override.example.com")
	t.Setenv("TRADEDASH_API_TIMEOUT_MS", "2500")

	conf := Config{API: APIConfig{BaseURL: "https://file.example.com", TimeoutMs: 5000}}
	clientConf := conf.ClientConfig()
	require.Equal(t, "https://override.example.com", clientConf.BaseURL)
	require.Equal(t, 2500*time.Millisecond, clientConf.Timeout)
}
