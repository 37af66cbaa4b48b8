package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	// Register the pgx stdlib driver as "pgx".
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/target/mmk-jobqueue/config"
	"github.com/target/mmk-jobqueue/internal/data"
	"github.com/target/mmk-jobqueue/internal/data/sqlitestore"
	"github.com/target/mmk-jobqueue/internal/migrate"
)

// DatabaseConfig contains configuration for database connections.
type DatabaseConfig struct {
	DBConfig    config.DBConfig
	RedisConfig config.RedisConfig
	Logger      *slog.Logger
}

// Store is the queue store selected by DB_DRIVER together with the handle it runs on.
type Store struct {
	DB      *sql.DB
	Queue   *data.QueueRepo
	Records data.RecordRepo
	Driver  config.DBDriver

	close func() error
}

// Close releases the database (and, for SQLite, the writer lock).
func (s *Store) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStore connects the configured backend. Migrations run when RunMigrationsOnStart is set.
func OpenStore(ctx context.Context, cfg DatabaseConfig) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.DBConfig.Driver == config.DBDriverSQLite {
		st, err := sqlitestore.Open(ctx, sqlitestore.Config{
			Path:           cfg.DBConfig.SQLitePath,
			BusyTimeout:    cfg.DBConfig.SQLiteBusyTimeout,
			Logger:         logger,
			SkipMigrations: !cfg.DBConfig.RunMigrationsOnStart,
		})
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return &Store{DB: st.DB, Queue: st.Queue, Records: st.Records, Driver: config.DBDriverSQLite, close: st.Close}, nil
	}

	db, err := ConnectDB(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.DBConfig.RunMigrationsOnStart {
		if migErr := RunMigrations(ctx, db, migrate.Postgres, logger); migErr != nil {
			return nil, errors.Join(migErr, db.Close())
		}
	} else {
		logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
	}

	return &Store{
		DB:      db,
		Queue:   data.NewQueueRepo(db, data.QueueRepoConfig{Dialect: migrate.Postgres, Logger: logger}),
		Records: data.NewRecordRepo(),
		Driver:  config.DBDriverPostgres,
		close:   db.Close,
	}, nil
}

// ConnectDB establishes a connection to the PostgreSQL database.
func ConnectDB(cfg DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", PostgresDSN(cfg.DBConfig))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.DBConfig.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DBConfig.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConfig.ConnMaxLifetime)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if pingErr := db.PingContext(ctx); pingErr != nil {
		if closeErr := db.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close database connection: %w", closeErr))
		}
		return nil, fmt.Errorf("ping database: %w", pingErr)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("database connected",
			"host", cfg.DBConfig.Host,
			"port", cfg.DBConfig.Port,
			"database", cfg.DBConfig.Name,
		)
	}

	return db, nil
}

// PostgresDSN builds the connection URL, escaping credentials.
func PostgresDSN(cfg config.DBConfig) string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.Name,
	}
	q := u.Query()
	q.Set("sslmode", cfg.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// ConnectRedis builds the token-cache client. Cluster nodes select a cluster client and
// sentinel mode a failover client; otherwise URI is either a redis:// URL or host:port.
//
//nolint:ireturn // the concrete client depends on the topology.
func ConnectRedis(ctx context.Context, cfg DatabaseConfig) (redis.UniversalClient, error) {
	opts, desc, err := redisOptions(cfg.RedisConfig)
	if err != nil {
		return nil, err
	}
	client := redis.NewUniversalClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if pingErr := client.Ping(pingCtx).Err(); pingErr != nil {
		if closeErr := client.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis %s: %w", desc, pingErr)
	}

	if cfg.Logger != nil {
		cfg.Logger.InfoContext(ctx, "redis connected", "addr", desc)
	}
	return client, nil
}

// redisOptions maps RedisConfig onto go-redis universal options and a credential-free description.
func redisOptions(cfg config.RedisConfig) (*redis.UniversalOptions, string, error) {
	opts := &redis.UniversalOptions{Password: cfg.Password}

	switch {
	case cfg.UseCluster:
		addrs := normalizeAddrs(cfg.ClusterNodes)
		if len(addrs) == 0 {
			parsed, err := parseRedisURI(cfg.URI)
			if err != nil {
				return nil, "", err
			}
			if parsed.Addr != "" {
				addrs = []string{parsed.Addr}
				opts.Username = parsed.Username
				opts.TLSConfig = parsed.TLSConfig
				if parsed.Password != "" {
					opts.Password = parsed.Password
				}
			}
		}
		if len(addrs) == 0 {
			return nil, "", errors.New("redis cluster configuration requires at least one address")
		}
		opts.Addrs = addrs
		opts.IsClusterMode = true
		return opts, "cluster:" + strings.Join(addrs, ","), nil

	case cfg.UseSentinel:
		nodes := normalizeAddrs(cfg.SentinelNodes)
		if len(nodes) == 0 {
			return nil, "", errors.New("redis sentinel configuration requires at least one sentinel node")
		}
		opts.Addrs = nodes
		opts.MasterName = cfg.SentinelMasterName
		opts.SentinelPassword = cfg.SentinelPassword
		return opts, "sentinel:" + cfg.SentinelMasterName, nil

	default:
		parsed, err := parseRedisURI(cfg.URI)
		if err != nil {
			return nil, "", err
		}
		if parsed.Addr == "" {
			return nil, "", errors.New("redis direct configuration requires a URI")
		}
		opts.Addrs = []string{parsed.Addr}
		opts.Username = parsed.Username
		opts.DB = parsed.DB
		opts.TLSConfig = parsed.TLSConfig
		if parsed.Password != "" {
			opts.Password = parsed.Password
		}
		return opts, parsed.Addr, nil
	}
}

// parseRedisURI accepts redis:// and rediss:// URLs or a bare host:port. Empty input yields zero options.
func parseRedisURI(uri string) (*redis.Options, error) {
	uri = strings.TrimSpace(uri)
	if !strings.HasPrefix(uri, "redis://") && !strings.HasPrefix(uri, "rediss://") {
		return &redis.Options{Addr: uri}, nil
	}
	opt, err := redis.ParseURL(uri)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return opt, nil
}

func normalizeAddrs(raw []string) []string {
	result := make([]string, 0, len(raw))
	for _, addr := range raw {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// RunMigrations runs database migrations.
func RunMigrations(ctx context.Context, db *sql.DB, dialect migrate.Dialect, logger *slog.Logger) error {
	if err := migrate.Run(ctx, db, dialect); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	if logger != nil {
		logger.InfoContext(ctx, "database migrations completed", "dialect", dialect)
	}

	return nil
}
