// Package migrate applies the embedded schema migrations for the supported SQL dialects.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/target/mmk-jobqueue/internal/data/pgxutil"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Dialect names the SQL flavour a database speaks.
type Dialect string

const (
	// Postgres is PostgreSQL through the pgx stdlib driver.
	Postgres Dialect = "postgres"
	// SQLite is the embedded modernc.org/sqlite driver.
	SQLite Dialect = "sqlite"
)

// Valid reports whether d is a supported dialect.
func (d Dialect) Valid() bool {
	return d == Postgres || d == SQLite
}

// advisoryLockKey serialises migrators across processes sharing a Postgres database.
const advisoryLockKey int64 = 0x6d6d6b_6a6f6273

// Migration is one embedded schema file.
type Migration struct {
	Version string
	File    string
}

// Run applies every embedded migration for dialect that schema_migrations does not list yet.
// It is safe to call repeatedly and from several processes at once.
func Run(ctx context.Context, db *sql.DB, dialect Dialect) error {
	return withMigrationConn(ctx, db, dialect, func(conn *sql.Conn) error {
		pending, err := pendingOn(ctx, conn, dialect)
		if err != nil {
			return err
		}
		logger := slog.Default().With("component", "migrations", "dialect", string(dialect))
		for _, m := range pending {
			logger.InfoContext(ctx, "applying migration", "version", m.Version)
			if err := apply(ctx, conn, m); err != nil {
				return err
			}
		}
		return nil
	})
}

// Pending lists the migrations Run would apply, in apply order.
func Pending(ctx context.Context, db *sql.DB, dialect Dialect) ([]Migration, error) {
	var pending []Migration
	err := withMigrationConn(ctx, db, dialect, func(conn *sql.Conn) error {
		var err error
		pending, err = pendingOn(ctx, conn, dialect)
		return err
	})
	return pending, err
}

// Files lists the embedded migration files for dialect in apply order.
func Files(dialect Dialect) ([]string, error) {
	dir := path.Join("migrations", string(dialect))
	entries, err := migrationsFS.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, path.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// withMigrationConn pins one connection for the whole run so the advisory lock,
// the bookkeeping reads and the migration transactions share a session.
func withMigrationConn(ctx context.Context, db *sql.DB, dialect Dialect, fn func(*sql.Conn) error) (err error) {
	if !dialect.Valid() {
		return fmt.Errorf("unsupported dialect %q", dialect)
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	if dialect == Postgres {
		if _, err = conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, advisoryLockKey); err != nil {
			return fmt.Errorf("acquire migration lock: %w", err)
		}
		defer func() {
			// The lock is session scoped; release it before the connection returns to the pool.
			if _, unlockErr := conn.ExecContext(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock($1)`, advisoryLockKey); unlockErr != nil && err == nil {
				err = fmt.Errorf("release migration lock: %w", unlockErr)
			}
		}()
	}

	if _, err = conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}
	return fn(conn)
}

func pendingOn(ctx context.Context, conn *sql.Conn, dialect Dialect) ([]Migration, error) {
	files, err := Files(dialect)
	if err != nil {
		return nil, err
	}
	applied, err := appliedVersions(ctx, conn)
	if err != nil {
		return nil, err
	}

	pending := make([]Migration, 0, len(files))
	for _, f := range files {
		version := strings.TrimSuffix(path.Base(f), ".sql")
		if !applied[version] {
			pending = append(pending, Migration{Version: version, File: f})
		}
	}
	return pending, nil
}

func appliedVersions(ctx context.Context, conn *sql.Conn) (map[string]bool, error) {
	rows, err := conn.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func apply(ctx context.Context, conn *sql.Conn, m Migration) error {
	body, err := migrationsFS.ReadFile(m.File)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", m.File, err)
	}

	return pgxutil.WithSQLTx(ctx, conn, pgxutil.SQLTxConfig{Fn: func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			return fmt.Errorf("exec migration %s: %w", m.File, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.Version); err != nil {
			return fmt.Errorf("record migration %s: %w", m.File, err)
		}
		return nil
	}})
}
