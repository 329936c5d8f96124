package postgres

import (
	"io"
	"io/fs"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	src, err := iofs.New(migrationsFS, "migrations")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	_, err = src.Next(first)
	assert.ErrorIs(t, err, fs.ErrNotExist, "only one migration is embedded")

	up, _, err := src.ReadUp(first)
	require.NoError(t, err)
	body, err := io.ReadAll(up)
	require.NoError(t, up.Close())
	require.NoError(t, err)
	assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS accounts")
	assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS transactions")
	assert.Contains(t, string(body), "NUMERIC(19,4)")

	down, _, err := src.ReadDown(first)
	require.NoError(t, err)
	body, err = io.ReadAll(down)
	require.NoError(t, down.Close())
	require.NoError(t, err)
	assert.Contains(t, string(body), "DROP TABLE IF EXISTS transactions")
}
