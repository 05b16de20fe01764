package db

import (
	"os"
	"path/filepath"
	"testing"

	ierr "github.com/andy/rapport/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rapport.db")

	d, err := Open(path, "secret")
	require.NoError(t, err)
	require.NoError(t, d.RunMigrations())
	// Running twice is a no-op.
	require.NoError(t, d.RunMigrations())

	v, err := d.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, len(migrations), v)

	var n int
	require.NoError(t, d.QueryRow("SELECT COUNT(*) FROM invoice_sequences").Scan(&n))
	assert.Zero(t, n)
	require.NoError(t, d.Close())
}

func TestOpenWithWrongKeyFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rapport.db")

	d, err := Open(path, "right")
	require.NoError(t, err)
	require.NoError(t, d.RunMigrations())
	require.NoError(t, d.Close())

	_, err = Open(path, "wrong")
	assert.Error(t, err)
}

func TestDatabaseFileIsEncrypted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rapport.db")

	d, err := Open(path, "right")
	require.NoError(t, err)
	require.NoError(t, d.RunMigrations())
	_, err = d.Exec(`INSERT INTO clients (name, hourly_rate) VALUES ('Beispiel AG', '120.00')`)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(data), 16)
	assert.NotEqual(t, "SQLite format 3\x00", string(data[:16]))
	assert.NotContains(t, string(data), "Beispiel AG")
}

func TestOpenRejectsUnusableKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rapport.db")

	for _, key := range []string{"", `ab"cd`} {
		_, err := Open(path, key)
		assert.True(t, ierr.IsValidation(err), "key %q", key)
	}
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
