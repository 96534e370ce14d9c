package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MOMO_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	require.Equal(t, "MoMoAPI", cfg.Auth.Realm)
	require.False(t, cfg.Auth.Enabled())
	require.Equal(t, "data/raw/modified_sms_v2.xml", cfg.Data.XMLPath)
	require.Equal(t, "data/processed/transactions.json", cfg.Data.JSONPath)
	require.Equal(t, "data/momo.db", cfg.Database.Path)
	require.Equal(t, 1, cfg.Pipeline.Workers)
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MOMO_CONFIG", "")
	t.Setenv("MOMO_SERVER_PORT", "9090")
	t.Setenv("MOMO_SERVER_READ_TIMEOUT", "3s")
	t.Setenv("MOMO_AUTH_USERNAME", "admin")
	t.Setenv("MOMO_AUTH_PASSWORD", "secret")
	t.Setenv("MOMO_PIPELINE_WORKERS", "4")
	t.Setenv("MOMO_SERVER_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	require.True(t, cfg.Auth.Enabled())
	require.Equal(t, "secret", cfg.Auth.Password)
	require.Equal(t, 4, cfg.Pipeline.Workers)
	require.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins())
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "momo.toml")
	content := `
[data]
json_path = "/tmp/tx.json"

[log]
format = "json"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("MOMO_CONFIG", path)
	t.Setenv("MOMO_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/tmp/tx.json", cfg.Data.JSONPath)
	require.Equal(t, "json", cfg.Logging.Format)
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("MOMO_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("MOMO_CONFIG", "")
	t.Setenv("MOMO_SERVER_PORT", "70000")

	_, err := Load()
	require.ErrorContains(t, err, "out of range")
}

func TestValidate_AuthNeedsPassword(t *testing.T) {
	cfg := Config{
		Server:   ServerConfig{Port: 8080},
		Auth:     AuthConfig{Username: "admin"},
		Pipeline: PipelineConfig{Workers: 1},
		Logging:  LoggingConfig{Format: "text"},
	}
	require.ErrorContains(t, cfg.Validate(), "password")
}
