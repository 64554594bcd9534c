package migrations

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseURL(t *testing.T) {
	assert.Equal(t, "sqlite://./data/db.sqlite", databaseURL(SQLite, "./data/db.sqlite"))
	assert.Equal(t, "sqlite:///tmp/db.sqlite", databaseURL(SQLite, "/tmp/db.sqlite"))
	assert.Equal(t, "pgx5://lumi@localhost/lumi", databaseURL(Postgres, "postgres://lumi@localhost/lumi"))
	assert.Equal(t, "pgx5://lumi@localhost/lumi", databaseURL(Postgres, "postgresql://lumi@localhost/lumi"))
}

func TestUpDownSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.sqlite")

	v, err := Up(SQLite, path)
	require.NoError(t, err)
	assert.Equal(t, uint(2), v)

	// A second run is a no-op.
	v, err = Up(SQLite, path)
	require.NoError(t, err)
	assert.Equal(t, uint(2), v)

	require.NoError(t, Down(SQLite, path))
}
