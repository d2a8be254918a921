package migrations

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func TestUpFiles_Ordered(t *testing.T) {
	for _, dir := range []string{"sqlite", "postgres"} {
		files, err := upFiles(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{
			dir + "/000001_calendar_accounts.up.sql",
			dir + "/000002_member_profiles.up.sql",
			dir + "/000003_bookings.up.sql",
			dir + "/000004_member_time_off.up.sql",
		}, files)
	}
}

func TestRunSQLiteMigrations_Idempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	require.NoError(t, RunSQLiteMigrations(ctx, db))
	require.NoError(t, RunSQLiteMigrations(ctx, db))

	for _, table := range []string{"calendar_accounts", "calendar_credentials", "member_profiles", "member_weekly_windows", "bookings", "member_time_off"} {
		var name string
		err := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		assert.NoError(t, err, table)
	}
}
