package errors

import (
	"context"
	"database/sql"
	"errors"
	"regexp"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/target/mmk-jobqueue/internal/domain/model"
)

// reKeyField extracts field name from unique violation detail: "Key (field)=(value) already exists.".
var reKeyField = regexp.MustCompile(`Key \(([^)]+)\)=`)

// sqliteError matches *sqlite.Error from modernc.org/sqlite without importing the driver.
type sqliteError interface {
	error
	Code() int
}

// MapDBError maps database errors to AppError instances.
// It handles:
// - sql.ErrNoRows, pgx.ErrNoRows and the model not-found sentinels → NotFound
// - unique violations → Conflict
// - foreign key violations → ForeignKey
// - check and NOT NULL violations → Validation
// - serialization failures, deadlocks and SQLITE_BUSY → Busy
// - context timeouts/cancellations → Timeout/Canceled
//
// If the error is not a recognized database error, it returns the original error.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(err, ErrCodeTimeout, "Request timed out. Please try again.")
	}
	if errors.Is(err, context.Canceled) {
		return Wrap(err, ErrCodeCanceled, "Request was canceled.")
	}

	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) ||
		errors.Is(err, model.ErrQueueItemNotFound) || errors.Is(err, model.ErrRecordNotFound) {
		return Wrap(err, ErrCodeNotFound, "Resource not found")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(err, pgErr)
	}

	var liteErr sqliteError
	if errors.As(err, &liteErr) {
		return mapSQLiteError(err, liteErr.Code())
	}

	return err
}

// mapPgError maps PostgreSQL-specific errors to AppError instances.
// err is the caller's error; pgErr is the driver error found in its chain.
func mapPgError(err error, pgErr *pgconn.PgError) error {
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		appErr := Wrap(err, ErrCodeConflict, "This value already exists.")
		appErr.Field = pgErr.ColumnName
		if appErr.Field == "" && pgErr.Detail != "" {
			if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
				appErr.Field = m[1]
			}
		}
		return appErr
	case pgerrcode.ForeignKeyViolation:
		return Wrap(err, ErrCodeForeignKey, "Referenced record does not exist or is still in use.")
	case pgerrcode.CheckViolation, pgerrcode.NotNullViolation, pgerrcode.InvalidTextRepresentation:
		appErr := Wrap(err, ErrCodeValidation, "Invalid data. Please check your input.")
		appErr.Field = pgErr.ColumnName
		return appErr
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.LockNotAvailable:
		return Wrap(err, ErrCodeBusy, "The database is busy. Please try again.")
	default:
		return Wrap(err, ErrCodeInternal, "A database error occurred. Please try again.")
	}
}

// mapSQLiteError maps modernc.org/sqlite extended result codes to AppError instances.
func mapSQLiteError(err error, code int) error {
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return Wrap(err, ErrCodeConflict, "This value already exists.")
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return Wrap(err, ErrCodeForeignKey, "Referenced record does not exist or is still in use.")
	case sqlite3.SQLITE_CONSTRAINT_CHECK, sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return Wrap(err, ErrCodeValidation, "Invalid data. Please check your input.")
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return Wrap(err, ErrCodeBusy, "The database is busy. Please try again.")
	default:
		return Wrap(err, ErrCodeInternal, "A database error occurred. Please try again.")
	}
}
