// Copyright (c) 2025 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestLoadFromMap tests configuration loading from an in-memory map.
// This test is parallel-safe and has no side effects.
func TestLoadFromMap(t *testing.T) {
	t.Parallel()

	t.Run("Loads all provided values correctly", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadFromMap(map[string]string{
			"SESSION_SECRET":               "test-secret",
			"POSTGRES_HOST":                "test-host",
			"POSTGRES_PORT":                "5433",
			"POSTGRES_MAX_OPEN_CONNS":      "55",
			"POSTGRES_CONN_MAX_LIFETIME":   "321",
			"SERVER_PORT":                  "9090",
			"DEBUG":                        "true",
			"CACHE_BACKEND":                "Redis",
			"REDIS_ADDRESS":                "cache:6379",
			"METADATA_FETCH_TIMEOUT":       "3s",
			"LEDGER_ALLOW_NEGATIVE_TOKENS": "false",
		})
		require.NoError(t, err)

		require.Equal(t, "test-secret", cfg.Session.Secret)
		require.Equal(t, "test-host", cfg.Database.Postgres.Host)
		require.Equal(t, 5433, cfg.Database.Postgres.Port)
		require.Equal(t, 55, cfg.Database.Postgres.MaxOpenConns)
		require.Equal(t, 321*time.Second, cfg.Database.Postgres.ConnMaxLifetime)
		require.Equal(t, 9090, cfg.Server.Port)
		require.True(t, cfg.Server.Debug)
		require.Equal(t, CacheBackendRedis, cfg.Cache.Backend)
		require.Equal(t, "cache:6379", cfg.Cache.Redis.Address)
		require.Equal(t, 3*time.Second, cfg.Metadata.Timeout)
		require.False(t, cfg.Ledger.AllowNegativeTokens)
	})

	t.Run("Applies defaults", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadFromMap(map[string]string{"SESSION_SECRET": "s"})
		require.NoError(t, err)

		require.Equal(t, 8080, cfg.Server.Port)
		require.Equal(t, CacheBackendMemory, cfg.Cache.Backend)
		require.Equal(t, 10*time.Second, cfg.Metadata.Timeout)
		require.True(t, cfg.Ledger.AllowNegativeTokens)
		require.Equal(t, "session", cfg.Session.CookieName)
	})

	t.Run("Requires session secret", func(t *testing.T) {
		t.Parallel()

		_, err := LoadFromMap(map[string]string{})
		require.Error(t, err)
		require.Contains(t, err.Error(), "SESSION_SECRET")
	})

	t.Run("Rejects malformed values", func(t *testing.T) {
		t.Parallel()

		_, err := LoadFromMap(map[string]string{
			"SESSION_SECRET":         "s",
			"SERVER_PORT":            "eighty",
			"METADATA_FETCH_TIMEOUT": "soon",
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "SERVER_PORT")
		require.Contains(t, err.Error(), "METADATA_FETCH_TIMEOUT")
	})

	t.Run("Rejects unknown cache backend", func(t *testing.T) {
		t.Parallel()

		_, err := LoadFromMap(map[string]string{"SESSION_SECRET": "s", "CACHE_BACKEND": "memcached"})
		require.Error(t, err)
	})
}

func TestConnectionString(t *testing.T) {
	t.Parallel()

	p := PostgreSQLConfig{Host: "db", Port: 5432, Database: "metamorph", Username: "u", Password: "p", SSLMode: "disable", ConnectTimeout: 5}
	require.Equal(t, "host=db port=5432 dbname=metamorph user=u password=p sslmode=disable connect_timeout=5", p.ConnectionString())

	p.DSN = "postgres://x"
	require.Equal(t, "postgres://x", p.ConnectionString())
}
