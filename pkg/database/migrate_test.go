package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsAreOrdered(t *testing.T) {
	migrations, err := Migrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, int64(1), migrations[0].Version)
	assert.Equal(t, int64(2), migrations[1].Version)
	assert.True(t, strings.HasSuffix(migrations[0].Source, "0001_init.sql"))
	assert.True(t, strings.HasSuffix(migrations[1].Source, "0002_export_jobs.sql"))
}

func TestEmbeddedMigrationsAreAnnotated(t *testing.T) {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)
	for _, name := range names {
		body, err := fs.ReadFile(migrationFiles, name)
		require.NoError(t, err)
		sql := string(body)
		assert.True(t, strings.HasPrefix(sql, "-- +goose Up\n"), name)
		assert.Contains(t, sql, "-- +goose Down", name)
	}
	body, err := fs.ReadFile(migrationFiles, "migrations/0001_init.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS payments")
}
