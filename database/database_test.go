package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_MigratesAndReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parish.sqlite")

	db, err := Open(path)
	require.NoError(t, err)

	for _, table := range []string{"user", "token", "form", "form_field", "form_response"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
	}

	var fk bool
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.True(t, fk)
	require.NoError(t, db.Close())

	// a second open finds the schema up to date
	db, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "file:parish.sqlite?_foreign_keys=on&_busy_timeout=5000", dsn("parish.sqlite"))
	assert.Equal(t, "file:parish.sqlite?_foreign_keys=on&_busy_timeout=5000", dsn("file:parish.sqlite"))
	assert.Equal(t, "file:x.db?mode=rwc&_foreign_keys=on&_busy_timeout=5000", dsn("file:x.db?mode=rwc"))
}
