package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/target/mmk-jobqueue/internal/core"
	"github.com/target/mmk-jobqueue/internal/data/pgxutil"
	"github.com/target/mmk-jobqueue/internal/domain/model"
	"github.com/target/mmk-jobqueue/internal/migrate"
)

const (
	defaultListLimit = 100
	maxListLimit     = 100
)

// QueueRepoConfig holds configuration options for the queue repository.
type QueueRepoConfig struct {
	Dialect      migrate.Dialect
	TimeProvider TimeProvider
	Logger       *slog.Logger
}

// QueueRepo provides the durable queue table on PostgreSQL or SQLite.
type QueueRepo struct {
	DB           *sql.DB
	dialect      migrate.Dialect
	timeProvider TimeProvider
	logger       *slog.Logger
}

var _ core.QueueStore = (*QueueRepo)(nil)

// NewQueueRepo creates a QueueRepo. The dialect defaults to PostgreSQL.
func NewQueueRepo(db *sql.DB, cfg QueueRepoConfig) *QueueRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = RealTimeProvider{}
	}
	dialect := cfg.Dialect
	if dialect == "" {
		dialect = migrate.Postgres
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &QueueRepo{
		DB:           db,
		dialect:      dialect,
		timeProvider: tp,
		logger:       logger.With("component", "queue_repo"),
	}
}

// Dialect reports which SQL flavour the repository speaks.
func (r *QueueRepo) Dialect() migrate.Dialect {
	return r.dialect
}

// lockClause returns the row locking suffix for claim queries. SQLite has no row locks;
// its claims are serialized by BEGIN IMMEDIATE on the single writer connection.
func (r *QueueRepo) lockClause() string {
	if r.dialect == migrate.SQLite {
		return ""
	}
	return " FOR UPDATE SKIP LOCKED"
}

// jobTypeExpr extracts the job "type" tag from the JSON payload column.
func (r *QueueRepo) jobTypeExpr() string {
	if r.dialect == migrate.SQLite {
		return "json_extract(job, '$.type')"
	}
	return "job->>'type'"
}

func (r *QueueRepo) txOptions() *sql.TxOptions {
	if r.dialect == migrate.SQLite {
		return nil
	}
	return &sql.TxOptions{Isolation: sql.LevelReadCommitted}
}

// WithTx runs fn inside one transaction. The transaction commits when fn returns nil.
func (r *QueueRepo) WithTx(ctx context.Context, fn func(ctx context.Context, tx core.QueueTx) error) error {
	return pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Opts: r.txOptions(),
		Fn: func(tx *sql.Tx) error {
			return fn(ctx, &queueTx{tx: tx, repo: r})
		},
	})
}

// Enqueue inserts a root item in its own transaction.
func (r *QueueRepo) Enqueue(ctx context.Context, job *model.EnqueueJob) (*model.QueueItem, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}

	var item *model.QueueItem
	err := r.WithTx(ctx, func(ctx context.Context, tx core.QueueTx) error {
		inserted, err := tx.Insert(ctx, job, nil)
		if err != nil {
			return err
		}
		item = inserted
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enqueue: %w", err)
	}
	return item, nil
}

// GetByID retrieves a queue item by its ID.
func (r *QueueRepo) GetByID(ctx context.Context, id string) (*model.QueueItem, error) {
	if id == "" {
		return nil, ErrQueueItemIDRequired
	}

	row := r.DB.QueryRowContext(ctx, `SELECT `+queueColumns+` FROM queue WHERE id = $1`, id)
	item, err := scanQueueItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrQueueItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get queue item: %w", err)
	}
	return item, nil
}

// List returns the most recently updated items, optionally filtered by status.
func (r *QueueRepo) List(ctx context.Context, opts model.ListQueueOptions) ([]*model.QueueItem, error) {
	limit := opts.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}

	var (
		where []string
		args  []any
	)
	if opts.Status != nil {
		args = append(args, int(*opts.Status))
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}
	args = append(args, limit)

	var b strings.Builder
	b.WriteString(`SELECT ` + queueColumns + ` FROM queue`)
	if len(where) > 0 {
		b.WriteString(` WHERE ` + strings.Join(where, " AND "))
	}
	b.WriteString(` ORDER BY updated_at DESC, id DESC LIMIT $` + strconv.Itoa(len(args)))

	rows, err := r.DB.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.WarnContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	items := make([]*model.QueueItem, 0, limit)
	for rows.Next() {
		item, scanErr := scanQueueItem(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan queue item: %w", scanErr)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate queue items: %w", err)
	}
	return items, nil
}

// Delete removes a queue item regardless of status.
func (r *QueueRepo) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrQueueItemIDRequired
	}

	res, err := r.DB.ExecContext(ctx, `DELETE FROM queue WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete queue item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if n == 0 {
		return model.ErrQueueItemNotFound
	}
	return nil
}
