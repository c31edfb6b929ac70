package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "Add disbursement undo column", "persist the undo deadline")
	require.NoError(t, err)

	assert.Len(t, mf.Version, 14)
	assert.Equal(t, "add_disbursement_undo_column", mf.SafeName)
	assert.FileExists(t, mf.UpPath)
	assert.FileExists(t, mf.DownPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "persist the undo deadline")
	assert.Contains(t, string(up), "optimistic locking")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Reverts: persist the undo deadline")
}

func TestCreateMigrationMakesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")

	mf, err := CreateMigration(dir, "init schema", "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(mf.UpPath, dir))
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"add vendors table", "add_vendors_table"},
		{"Add-Check  Requisitions!", "add_check_requisitions"},
		{"trailing space ", "trailing_space"},
		{"__already__safe__", "already_safe"},
		{"UPPER123", "upper123"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeName(tt.in), tt.in)
	}
}

func TestListMigrations(t *testing.T) {
	t.Run("missing directory is empty", func(t *testing.T) {
		migrations, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
		require.NoError(t, err)
		assert.Empty(t, migrations)
	})

	t.Run("pairs are listed once and sorted", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{
			"20250102000000_add_projects.up.sql",
			"20250102000000_add_projects.down.sql",
			"20250101000000_init_payables_schema.up.sql",
			"20250101000000_init_payables_schema.down.sql",
			"notes.txt",
		} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("-- sql"), 0644))
		}

		migrations, err := ListMigrations(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"20250101000000_init_payables_schema",
			"20250102000000_add_projects",
		}, migrations)
	})
}
