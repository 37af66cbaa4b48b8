// Package sqlitestore opens the embedded single-writer SQLite backend for the queue.
//
// SQLite has no FOR UPDATE SKIP LOCKED. Claims are serialized instead: the pool holds a single
// connection, every transaction starts with BEGIN IMMEDIATE, and an exclusive flock on
// "<path>.lock" keeps a second process from opening the same file as a writer.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	// Register the modernc.org/sqlite driver as "sqlite".
	_ "modernc.org/sqlite"

	"github.com/target/mmk-jobqueue/internal/data"
	"github.com/target/mmk-jobqueue/internal/migrate"
)

// ErrLocked is returned when another process already owns the database file.
var ErrLocked = errors.New("sqlite database is locked by another process")

const defaultBusyTimeout = 5 * time.Second

// Config configures Open.
type Config struct {
	Path         string
	BusyTimeout  time.Duration
	TimeProvider data.TimeProvider
	Logger       *slog.Logger
	// SkipMigrations leaves the schema untouched.
	SkipMigrations bool
}

// Store bundles the SQLite handle with the repositories that run on it.
type Store struct {
	DB      *sql.DB
	Queue   *data.QueueRepo
	Records data.RecordRepo

	path string
	lock *flock.Flock
}

// Open acquires the writer lock, opens the database and applies migrations.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	lock := flock.New(cfg.Path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, cfg.Path)
	}

	db, err := sql.Open("sqlite", DSN(cfg.Path, cfg.BusyTimeout))
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if pingErr := db.PingContext(ctx); pingErr != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("ping sqlite db: %w", pingErr)
	}

	if !cfg.SkipMigrations {
		if migErr := migrate.Run(ctx, db, migrate.SQLite); migErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, migErr
		}
	}

	logger.InfoContext(ctx, "sqlite store opened", "path", cfg.Path)

	return &Store{
		DB: db,
		Queue: data.NewQueueRepo(db, data.QueueRepoConfig{
			Dialect:      migrate.SQLite,
			TimeProvider: cfg.TimeProvider,
			Logger:       logger,
		}),
		Records: data.NewRecordRepo(),
		path:    cfg.Path,
		lock:    lock,
	}, nil
}

// DSN builds the modernc.org/sqlite connection string for path.
func DSN(path string, busyTimeout time.Duration) string {
	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeout
	}
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "foreign_keys(1)")
	q.Set("_txlock", "immediate")
	q.Set("_time_format", "sqlite")
	return "file:" + path + "?" + q.Encode()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database and releases the writer lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sqlite db: %w", err))
		}
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil {
			errs = append(errs, fmt.Errorf("release lock: %w", err))
		}
	}
	return errors.Join(errs...)
}
