package config

import (
	"fmt"
	"strings"
	"time"
)

// DBDriver selects the queue store backend.
type DBDriver string

const (
	// DBDriverPostgres stores the queue in PostgreSQL. Claims use FOR UPDATE SKIP LOCKED.
	DBDriverPostgres DBDriver = "postgres"
	// DBDriverSQLite stores the queue in an embedded single-writer SQLite file.
	DBDriverSQLite DBDriver = "sqlite"
)

// UnmarshalText implements encoding.TextUnmarshaler for DBDriver.
func (d *DBDriver) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "postgres", "postgresql", "pg":
		*d = DBDriverPostgres
		return nil
	case "sqlite", "sqlite3":
		*d = DBDriverSQLite
		return nil
	default:
		return fmt.Errorf("invalid DBDriver: %q (valid options: postgres, sqlite)", v)
	}
}

// DBConfig contains database configuration.
type DBConfig struct {
	Driver   DBDriver `env:"DRIVER"   envDefault:"postgres"`
	Host     string   `env:"HOST"     envDefault:"localhost"`
	Port     int      `env:"PORT"     envDefault:"5432"`
	User     string   `env:"USER"     envDefault:"mmk"`
	Password string   `env:"PASSWORD" envDefault:"mmk"`
	Name     string   `env:"NAME"     envDefault:"mmk"`
	SSLMode  string   `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production

	// SQLitePath is the database file used when Driver=sqlite.
	SQLitePath        string        `env:"SQLITE_PATH"         envDefault:"data/mmk-jobqueue.db"`
	SQLiteBusyTimeout time.Duration `env:"SQLITE_BUSY_TIMEOUT" envDefault:"5s"`

	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`

	MaxOpenConns    int           `env:"MAX_OPEN_CONNS"    envDefault:"25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS"    envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
}

// Sanitize applies guardrails to database configuration values.
func (d *DBConfig) Sanitize() {
	if d.Driver == "" {
		d.Driver = DBDriverPostgres
	}
	d.SQLitePath = strings.TrimSpace(d.SQLitePath)
	if d.MaxOpenConns < 1 {
		d.MaxOpenConns = 1
	}
	if d.MaxIdleConns < 0 {
		d.MaxIdleConns = 0
	}
	if d.MaxIdleConns > d.MaxOpenConns {
		d.MaxIdleConns = d.MaxOpenConns
	}
}

// RedisConfig contains Redis configuration. Redis is optional; it only backs the shared Auth0 token cache.
type RedisConfig struct {
	Enabled            bool     `env:"ENABLED"              envDefault:"false"`
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
	// KeyPrefix namespaces every key this service writes.
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"mmk-jobqueue:"`
}

// Sanitize applies guardrails to Redis configuration values.
func (r *RedisConfig) Sanitize() {
	r.URI = strings.TrimSpace(r.URI)
	if r.UseCluster {
		r.UseSentinel = false
	}
}
