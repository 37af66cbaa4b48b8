package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/target/mmk-jobqueue/internal/core"
	"github.com/target/mmk-jobqueue/internal/domain/model"
)

// RecordRepo reads the business records queue jobs operate on. The SQL is shared by both dialects.
type RecordRepo struct{}

var _ core.RecordRepository = RecordRepo{}

// NewRecordRepo creates a RecordRepo.
func NewRecordRepo() RecordRepo {
	return RecordRepo{}
}

// Membership loads a membership by ID.
func (RecordRepo) Membership(ctx context.Context, tx *sql.Tx, id string) (*model.Membership, error) {
	var (
		m         model.Membership
		createdAt dbTime
	)
	err := tx.QueryRowContext(ctx,
		`SELECT id, account_id, user_email, created_at FROM memberships WHERE id = $1`, id,
	).Scan(&m.ID, &m.AccountID, &m.UserEmail, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("membership %s: %w", id, model.ErrRecordNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load membership: %w", err)
	}
	m.CreatedAt = createdAt.Time
	return &m, nil
}

// Account loads an account by ID.
func (RecordRepo) Account(ctx context.Context, tx *sql.Tx, id string) (*model.Account, error) {
	var (
		a         model.Account
		createdAt dbTime
	)
	err := tx.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM accounts WHERE id = $1`, id,
	).Scan(&a.ID, &a.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s: %w", id, model.ErrRecordNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	a.CreatedAt = createdAt.Time
	return &a, nil
}

// DeleteExpiredSessions removes sessions whose expiry is before now.
func (RecordRepo) DeleteExpiredSessions(ctx context.Context, tx *sql.Tx, now time.Time) (int, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE expiry IS NOT NULL AND expiry < $1`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return rowsAffected(res)
}

// FirstPartyAggregators lists live aggregators operated by the platform itself.
func (RecordRepo) FirstPartyAggregators(ctx context.Context, tx *sql.Tx) ([]*model.Aggregator, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, name, api_url, encrypted_bearer_token, is_first_party
		FROM aggregators
		WHERE is_first_party = $1 AND deleted_at IS NULL
		ORDER BY name`, true)
	if err != nil {
		return nil, fmt.Errorf("list aggregators: %w", err)
	}
	defer rows.Close()

	var out []*model.Aggregator
	for rows.Next() {
		var a model.Aggregator
		if scanErr := rows.Scan(&a.ID, &a.Name, &a.APIURL, &a.EncryptedBearerToken, &a.IsFirstParty); scanErr != nil {
			return nil, fmt.Errorf("scan aggregator: %w", scanErr)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aggregators: %w", err)
	}
	return out, nil
}

// TaskExists reports whether the aggregator's task is known locally.
func (RecordRepo) TaskExists(ctx context.Context, tx *sql.Tx, aggregatorID, taskID string) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE aggregator_id = $1 AND task_id = $2`, aggregatorID, taskID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check task: %w", err)
	}
	return n > 0, nil
}
