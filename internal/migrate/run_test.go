package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiles_OrderedPerDialect(t *testing.T) {
	for _, d := range []Dialect{Postgres, SQLite} {
		files, err := Files(d)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"migrations/" + string(d) + "/0001_queue.sql",
			"migrations/" + string(d) + "/0002_records.sql",
		}, files)
	}
}

func TestDialect_Valid(t *testing.T) {
	assert.True(t, Postgres.Valid())
	assert.True(t, SQLite.Valid())
	assert.False(t, Dialect("mysql").Valid())
}
