package errors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/target/mmk-jobqueue/internal/domain/model"
)

type fakeSQLiteError struct{ code int }

func (e fakeSQLiteError) Error() string { return fmt.Sprintf("sqlite error %d", e.code) }
func (e fakeSQLiteError) Code() int     { return e.code }

func TestMapDBError_Nil(t *testing.T) {
	assert.NoError(t, MapDBError(nil))
}

func TestMapDBError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  ErrorCode
		wantField string
	}{
		{name: "deadline", err: context.DeadlineExceeded, wantCode: ErrCodeTimeout},
		{name: "canceled", err: fmt.Errorf("query: %w", context.Canceled), wantCode: ErrCodeCanceled},
		{name: "sql no rows", err: sql.ErrNoRows, wantCode: ErrCodeNotFound},
		{name: "pgx no rows", err: pgx.ErrNoRows, wantCode: ErrCodeNotFound},
		{name: "queue item sentinel", err: model.ErrQueueItemNotFound, wantCode: ErrCodeNotFound},
		{name: "record sentinel", err: fmt.Errorf("membership x: %w", model.ErrRecordNotFound), wantCode: ErrCodeNotFound},
		{
			name:      "pg unique with detail",
			err:       &pgconn.PgError{Code: pgerrcode.UniqueViolation, Detail: `Key (task_id)=(abc) already exists.`},
			wantCode:  ErrCodeConflict,
			wantField: "task_id",
		},
		{
			name:      "pg unique with column",
			err:       &pgconn.PgError{Code: pgerrcode.UniqueViolation, ColumnName: "id"},
			wantCode:  ErrCodeConflict,
			wantField: "id",
		},
		{name: "pg fk", err: &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}, wantCode: ErrCodeForeignKey},
		{
			name:      "pg check",
			err:       &pgconn.PgError{Code: pgerrcode.CheckViolation, ColumnName: "status"},
			wantCode:  ErrCodeValidation,
			wantField: "status",
		},
		{name: "pg bad uuid", err: &pgconn.PgError{Code: pgerrcode.InvalidTextRepresentation}, wantCode: ErrCodeValidation},
		{name: "pg deadlock", err: &pgconn.PgError{Code: pgerrcode.DeadlockDetected}, wantCode: ErrCodeBusy},
		{
			name:     "pg serialization wrapped",
			err:      fmt.Errorf("claim: %w", &pgconn.PgError{Code: pgerrcode.SerializationFailure}),
			wantCode: ErrCodeBusy,
		},
		{name: "pg other", err: &pgconn.PgError{Code: pgerrcode.DiskFull}, wantCode: ErrCodeInternal},
		{name: "sqlite unique", err: fakeSQLiteError{sqlite3.SQLITE_CONSTRAINT_UNIQUE}, wantCode: ErrCodeConflict},
		{name: "sqlite fk", err: fakeSQLiteError{sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY}, wantCode: ErrCodeForeignKey},
		{name: "sqlite busy", err: fmt.Errorf("claim: %w", fakeSQLiteError{sqlite3.SQLITE_BUSY}), wantCode: ErrCodeBusy},
		{name: "sqlite other", err: fakeSQLiteError{1}, wantCode: ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.err)
			assert.Equal(t, tt.wantCode, CodeOf(err))
			assert.Equal(t, tt.wantField, GetField(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestMapDBError_PassesThroughUnknown(t *testing.T) {
	plain := errors.New("network unreachable")
	assert.Equal(t, plain, MapDBError(plain))
}
