package testutil

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// TestTime returns the fixed instant record fixtures are stamped with.
func TestTime() time.Time {
	return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

// AggregatorSeed describes an aggregator row for InsertAggregator.
type AggregatorSeed struct {
	Name           string
	APIURL         string
	EncryptedToken string
	FirstParty     bool
	Deleted        bool
}

func mustExec(t TestingTB, db *sql.DB, query string, args ...any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		t.Fatalf("seed %q: %v", query, err)
	}
}

// InsertAccount creates an account and returns its id.
func InsertAccount(t TestingTB, db *sql.DB, name string) string {
	t.Helper()
	id := uuid.NewString()
	mustExec(t, db, `INSERT INTO accounts (id, name, created_at) VALUES ($1, $2, $3)`, id, name, TestTime())
	return id
}

// InsertMembership creates a membership of accountID and returns its id.
func InsertMembership(t TestingTB, db *sql.DB, accountID, email string) string {
	t.Helper()
	id := uuid.NewString()
	mustExec(t, db,
		`INSERT INTO memberships (id, account_id, user_email, created_at) VALUES ($1, $2, $3, $4)`,
		id, accountID, email, TestTime())
	return id
}

// InsertSession creates a session row. A nil expiry never expires.
func InsertSession(t TestingTB, db *sql.DB, id string, expiry *time.Time) {
	t.Helper()
	var exp any
	if expiry != nil {
		exp = expiry.UTC()
	}
	mustExec(t, db, `INSERT INTO sessions (id, expiry) VALUES ($1, $2)`, id, exp)
}

// InsertAggregator creates an aggregator row and returns its id.
func InsertAggregator(t TestingTB, db *sql.DB, seed AggregatorSeed) string {
	t.Helper()
	id := uuid.NewString()
	var deletedAt any
	if seed.Deleted {
		deletedAt = TestTime()
	}
	mustExec(t, db, `
		INSERT INTO aggregators (id, name, api_url, encrypted_bearer_token, is_first_party, created_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, seed.Name, seed.APIURL, seed.EncryptedToken, seed.FirstParty, TestTime(), deletedAt)
	return id
}

// InsertTask records a remote task as known locally.
func InsertTask(t TestingTB, db *sql.DB, aggregatorID, taskID string) {
	t.Helper()
	mustExec(t, db,
		`INSERT INTO tasks (id, aggregator_id, task_id, created_at) VALUES ($1, $2, $3, $4)`,
		uuid.NewString(), aggregatorID, taskID, TestTime())
}
