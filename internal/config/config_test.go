package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Empty(t, cfg.Catalog.Dir)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.True(t, cfg.Export.Strict)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "/metrics", cfg.Monitoring.MetricsPath)
	assert.Empty(t, cfg.Monitoring.PushgatewayURL)
	assert.Equal(t, uint32(3), cfg.Redis.BreakerMaxFailures)
	assert.Equal(t, 30*time.Second, cfg.Redis.BreakerTimeout)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  mode: debug
catalog:
  dir: ./content
validation:
  strict_references: true
cache:
  ttl: 30s
database:
  enabled: true
  dsn: postgres://edu@localhost/edu?sslmode=disable
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, "./content", cfg.Catalog.Dir)
	assert.True(t, cfg.Validation.StrictReferences)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "postgres://edu@localhost/edu?sslmode=disable", cfg.Database.ConnString())
	assert.Equal(t, 20.0, cfg.RateLimit.RequestsPerSecond, "unset keys keep their defaults")
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n")
	t.Setenv("EDU_SERVER_PORT", "9191")
	t.Setenv("EDU_CATALOG_DIR", "/srv/content")
	t.Setenv("EDU_REQUIRE_TRANSLATIONS", "true")
	t.Setenv("EDU_PUSHGATEWAY_URL", "http://pushgateway:9091")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "/srv/content", cfg.Catalog.Dir)
	assert.True(t, cfg.Validation.RequireTranslations)
	assert.Equal(t, "http://pushgateway:9091", cfg.Monitoring.PushgatewayURL)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err, "an explicit path must exist")

	_, err = LoadConfig(writeConfig(t, "server:\n  port: 70000\n"))
	assert.ErrorContains(t, err, "server.port")

	_, err = LoadConfig(writeConfig(t, "redis:\n  enabled: true\n  url: \"\"\n"))
	assert.ErrorContains(t, err, "redis.url")

	_, err = LoadConfig(writeConfig(t, "redis:\n  enabled: true\n  breaker_max_failures: 0\n"))
	assert.ErrorContains(t, err, "redis.breaker_max_failures")

	_, err = LoadConfig(writeConfig(t, "export:\n  retention_days: -1\n"))
	assert.ErrorContains(t, err, "export.retention_days")

	_, err = LoadConfig(writeConfig(t, "catalog:\n  reload_interval: -5s\n"))
	assert.ErrorContains(t, err, "catalog.reload_interval")

	t.Setenv("EDU_SERVER_PORT", "not-a-number")
	_, err = LoadConfig("")
	assert.Error(t, err)
}

func TestDatabaseConfig_ConnString(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "edu", Password: "pw", Name: "content", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=edu password=pw dbname=content sslmode=disable", c.ConnString())
}

func TestRedisConfig_ToBrokerConfig(t *testing.T) {
	c := RedisConfig{URL: "redis://cache:6379/1", MaxRetries: 2, RetryBackoff: time.Second, PoolSize: 4, MinIdleConns: 1}
	b := c.ToBrokerConfig()

	assert.Equal(t, "redis://cache:6379/1", b.URL)
	assert.Equal(t, 2, b.MaxRetries)
	assert.Equal(t, time.Second, b.RetryBackoff)
	assert.Equal(t, 4, b.PoolSize)
	assert.Equal(t, 1, b.MinIdleConns)
}
