package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.True(t, cfg.Server.RateLimit.Enabled)
	require.Equal(t, 100, cfg.Server.RateLimit.MaxRequests)
	require.Equal(t, time.Minute, cfg.Server.RateLimit.Window)

	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "https://api.themoviedb.org/3", cfg.TMDB.BaseURL)
	require.Equal(t, "en-US", cfg.TMDB.Language)
	require.Equal(t, "https://accounts.spotify.com/api/token", cfg.Spotify.TokenURL)

	require.True(t, cfg.Maintenance.Enabled)
	require.Equal(t, "@hourly", cfg.Maintenance.Schedule)
	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
}

func TestLoadConfigReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
server:
  port: 9100
  log_level: debug
  rate_limit:
    enabled: false
database:
  driver: postgres
  postgres:
    host: db.internal
    port: 5433
    database: filmatlas
    username: svc
    password: secret
tmdb:
  api_key: tmdb-key
maintenance:
  schedule: "@every 30m"
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.False(t, cfg.Server.RateLimit.Enabled)
	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "tmdb-key", cfg.TMDB.APIKey)
	require.Equal(t, "@every 30m", cfg.Maintenance.Schedule)

	dbCfg := cfg.DatabaseOptions()
	require.Equal(t, "db.internal", dbCfg.Host)
	require.Equal(t, 5433, dbCfg.Port)
	require.Equal(t, "filmatlas", dbCfg.Name)
	require.Equal(t, "svc", dbCfg.User)
	require.Equal(t, "secret", dbCfg.Password)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("FILMATLAS_SERVER_PORT", "9001")
	t.Setenv("FILMATLAS_TMDB_API_KEY", "env-key")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 9001, cfg.Server.Port)
	require.Equal(t, "env-key", cfg.TMDB.APIKey)
}

func TestDatabaseOptionsMySQL(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Driver = "mysql"
	cfg.Database.MySQL = DBAuthConfig{
		Host:     "mysql.internal",
		Port:     3307,
		Database: "filmatlas",
		Username: "svc",
		Password: "secret",
	}

	dbCfg := cfg.DatabaseOptions()
	require.Equal(t, "mysql", dbCfg.Driver)
	require.Equal(t, "mysql.internal", dbCfg.Host)
	require.Equal(t, 3307, dbCfg.Port)
}
