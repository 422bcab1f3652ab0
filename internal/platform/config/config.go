// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the service configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Session  SessionConfig  `json:"session"`
	Cache    CacheConfig    `json:"cache"`
	Metadata MetadataConfig `json:"metadata"`
	Ledger   LedgerConfig   `json:"ledger"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	WebDomain string `json:"webDomain"`
	Debug     bool   `json:"debug"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Postgres PostgreSQLConfig `json:"postgres"`
}

// PostgreSQLConfig holds PostgreSQL-specific configuration
type PostgreSQLConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Username        string        `json:"username"`
	Password        string        `json:"password"`
	Database        string        `json:"database"`
	DSN             string        `json:"dsn"`
	SSLMode         string        `json:"sslMode"`
	MaxOpenConns    int           `json:"maxOpenConns"`
	MaxIdleConns    int           `json:"maxIdleConns"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime"`
	ConnectTimeout  int           `json:"connectTimeout"`
}

// SessionConfig holds login session configuration
type SessionConfig struct {
	Secret     string        `json:"-"`
	TTL        time.Duration `json:"ttl"`
	CookieName string        `json:"cookieName"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Backend    string        `json:"backend"` // memory or redis
	Prefix     string        `json:"prefix"`
	ContentTTL time.Duration `json:"contentTtl"`
	Redis      RedisConfig   `json:"redis"`
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	Address      string `json:"address"`
	Password     string `json:"password"`
	Database     int    `json:"database"`
	PoolSize     int    `json:"poolSize"`
	MinIdleConns int    `json:"minIdleConns"`
}

// MetadataConfig controls fetching of page metadata for submitted URLs
type MetadataConfig struct {
	Timeout      time.Duration `json:"timeout"`
	MaxBodyBytes int64         `json:"maxBodyBytes"`
	UserAgent    string        `json:"userAgent"`
}

// LedgerConfig controls token bookkeeping
type LedgerConfig struct {
	AllowNegativeTokens bool `json:"allowNegativeTokens"`
}

// Cache backends
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// LoadFromEnv loads configuration from the environment.
// Precedence:
// 1. Explicit Environment Variables
// 2. Values from the .env file (if it exists)
// 3. Hardcoded defaults
func LoadFromEnv(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// godotenv never overrides variables that are already set.
		if err := godotenv.Load(f); err == nil {
			break
		}
	}

	return load(os.LookupEnv)
}

// LoadFromMap loads configuration from an in-memory map.
// Used to test configuration logic without touching the process environment.
func LoadFromMap(envMap map[string]string) (*Config, error) {
	return load(func(key string) (string, bool) {
		v, ok := envMap[key]
		return v, ok
	})
}

type lookupFunc func(key string) (string, bool)

func load(lookup lookupFunc) (*Config, error) {
	e := env{lookup: lookup}

	cfg := &Config{
		Server: ServerConfig{
			Host:      e.getString("HOST", "localhost"),
			Port:      e.getInt("SERVER_PORT", 8080),
			WebDomain: e.getString("WEB_DOMAIN", "http://localhost:3000"),
			Debug:     e.getBool("DEBUG", false),
		},
		Database: DatabaseConfig{
			Postgres: PostgreSQLConfig{
				Host:            e.getString("POSTGRES_HOST", "localhost"),
				Port:            e.getInt("POSTGRES_PORT", 5432),
				Username:        e.getString("POSTGRES_USERNAME", ""),
				Password:        e.getString("POSTGRES_PASSWORD", ""),
				Database:        e.getString("POSTGRES_DATABASE", "metamorph"),
				DSN:             e.getString("POSTGRES_DSN", ""),
				SSLMode:         e.getString("POSTGRES_SSL_MODE", "disable"),
				MaxOpenConns:    e.getInt("POSTGRES_MAX_OPEN_CONNS", 25),
				MaxIdleConns:    e.getInt("POSTGRES_MAX_IDLE_CONNS", 25),
				ConnMaxLifetime: time.Duration(e.getInt("POSTGRES_CONN_MAX_LIFETIME", 300)) * time.Second,
				ConnectTimeout:  e.getInt("POSTGRES_CONNECT_TIMEOUT", 10),
			},
		},
		Session: SessionConfig{
			Secret:     e.getString("SESSION_SECRET", ""),
			TTL:        e.getDuration("SESSION_TTL", 7*24*time.Hour),
			CookieName: e.getString("SESSION_COOKIE", "session"),
		},
		Cache: CacheConfig{
			Backend:    strings.ToLower(e.getString("CACHE_BACKEND", CacheBackendMemory)),
			Prefix:     e.getString("CACHE_PREFIX", "metamorph:"),
			ContentTTL: e.getDuration("CACHE_CONTENT_TTL", 24*time.Hour),
			Redis: RedisConfig{
				Address:      e.getString("REDIS_ADDRESS", "localhost:6379"),
				Password:     e.getString("REDIS_PASSWORD", ""),
				Database:     e.getInt("REDIS_DATABASE", 0),
				PoolSize:     e.getInt("REDIS_POOL_SIZE", 10),
				MinIdleConns: e.getInt("REDIS_MIN_IDLE_CONNS", 2),
			},
		},
		Metadata: MetadataConfig{
			Timeout:      e.getDuration("METADATA_FETCH_TIMEOUT", 10*time.Second),
			MaxBodyBytes: e.getInt64("METADATA_MAX_BODY_BYTES", 2*1024*1024),
			UserAgent:    e.getString("METADATA_USER_AGENT", "metamorph-bot/1.0"),
		},
		Ledger: LedgerConfig{
			AllowNegativeTokens: e.getBool("LEDGER_ALLOW_NEGATIVE_TOKENS", true),
		},
	}

	if err := errors.Join(e.errs...); err != nil {
		return nil, fmt.Errorf("configuration parse failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks required settings
func (c *Config) Validate() error {
	if c.Session.Secret == "" {
		return errors.New("required configuration SESSION_SECRET is not set")
	}
	if c.Session.TTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.Metadata.Timeout <= 0 {
		return errors.New("METADATA_FETCH_TIMEOUT must be positive")
	}
	if c.Metadata.MaxBodyBytes <= 0 {
		return errors.New("METADATA_MAX_BODY_BYTES must be positive")
	}
	switch c.Cache.Backend {
	case CacheBackendMemory, CacheBackendRedis:
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.Cache.Backend)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT %d", c.Server.Port)
	}
	return nil
}

// ConnectionString returns the DSN when set, otherwise a key/value string
// built from the individual settings.
func (p PostgreSQLConfig) ConnectionString() string {
	if p.DSN != "" {
		return p.DSN
	}

	parts := []string{
		fmt.Sprintf("host=%s", p.Host),
		fmt.Sprintf("port=%d", p.Port),
		fmt.Sprintf("dbname=%s", p.Database),
	}
	if p.Username != "" {
		parts = append(parts, fmt.Sprintf("user=%s", p.Username))
	}
	if p.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", p.Password))
	}
	parts = append(parts, fmt.Sprintf("sslmode=%s", p.SSLMode))
	if p.ConnectTimeout > 0 {
		parts = append(parts, fmt.Sprintf("connect_timeout=%d", p.ConnectTimeout))
	}

	return strings.Join(parts, " ")
}

// env collects parse errors instead of silently falling back to defaults
type env struct {
	lookup lookupFunc
	errs   []error
}

func (e *env) getString(key, def string) string {
	if v, ok := e.lookup(key); ok && v != "" {
		return v
	}
	return def
}

func (e *env) getInt(key string, def int) int {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (e *env) getInt64(key string, def int64) int64 {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (e *env) getBool(key string, def bool) bool {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func (e *env) getDuration(key string, def time.Duration) time.Duration {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}
