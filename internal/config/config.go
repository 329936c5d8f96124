// Package config reads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sheikh-saqib/money-management-ledger/internal/logging"
	"github.com/sheikh-saqib/money-management-ledger/internal/models/events"
	"github.com/sheikh-saqib/money-management-ledger/internal/storage/postgres"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	HTTPAddr string
	Store    string
	Postgres postgres.Config
	// MigrateOnStart applies the embedded migrations before serving.
	MigrateOnStart bool

	// KafkaBrokers empty disables event publishing to Kafka.
	KafkaBrokers []string
	KafkaTopic   string

	// RedisAddr empty keeps the dashboard cache in process.
	RedisAddr         string
	DashboardCacheTTL time.Duration

	Log logging.Config
}

// Load reads .env from the working directory if present, then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, falling back to defaults for unset keys.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	r := reader{lookup: lookup}

	pg := postgres.DefaultConfig()
	pg.Host = r.string("POSTGRES_HOST", pg.Host)
	pg.Port = r.int("POSTGRES_PORT", pg.Port)
	pg.User = r.string("POSTGRES_USER", pg.User)
	pg.Password = r.string("POSTGRES_PASSWORD", pg.Password)
	pg.Database = r.string("POSTGRES_DB", pg.Database)
	pg.SSLMode = r.string("POSTGRES_SSLMODE", pg.SSLMode)
	pg.StatementTimeout = r.duration("POSTGRES_STATEMENT_TIMEOUT", pg.StatementTimeout)

	logCfg := logging.DefaultConfig()
	logCfg.Level = r.string("LOG_LEVEL", logCfg.Level)
	logCfg.Format = r.string("LOG_FORMAT", logCfg.Format)
	logCfg.Development = r.bool("LOG_DEV", false)

	cfg := Config{
		HTTPAddr:          r.string("HTTP_ADDR", ":8080"),
		Store:             strings.ToLower(r.string("STORE", StoreMemory)),
		Postgres:          pg,
		MigrateOnStart:    r.bool("MIGRATE_ON_START", false),
		KafkaBrokers:      r.list("KAFKA_BROKERS"),
		KafkaTopic:        r.string("KAFKA_TOPIC", events.Topic),
		RedisAddr:         r.string("REDIS_ADDR", ""),
		DashboardCacheTTL: r.duration("DASHBOARD_CACHE_TTL", 30*time.Second),
		Log:               logCfg,
	}

	if err := errors.Join(r.errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory, StorePostgres:
	default:
		return fmt.Errorf("config: STORE must be %q or %q, got %q", StoreMemory, StorePostgres, c.Store)
	}
	if c.DashboardCacheTTL < 0 {
		return fmt.Errorf("config: DASHBOARD_CACHE_TTL must not be negative")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	return nil
}

// reader collects parse errors so every bad key is reported at once.
type reader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *reader) raw(key string) (string, bool) {
	v, ok := r.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (r *reader) string(key, def string) string {
	if v, ok := r.raw(key); ok {
		return v
	}
	return def
}

func (r *reader) int(key string, def int) int {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("config: %s: invalid integer %q", key, v))
		return def
	}
	return n
}

func (r *reader) bool(key string, def bool) bool {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("config: %s: invalid boolean %q", key, v))
		return def
	}
	return b
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("config: %s: invalid duration %q", key, v))
		return def
	}
	return d
}

func (r *reader) list(key string) []string {
	v, ok := r.raw(key)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
