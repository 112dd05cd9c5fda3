package storage

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
)

// testDB opens an in-memory SQLite database with the schema applied.
// A single connection keeps the in-memory database alive for the test.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(Config{Driver: "sqlite3", URL: ":memory:", MaxConns: 1, MinConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(context.Background(), db, "sqlite3"))
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := testDB(t)
	require.NoError(t, Migrate(context.Background(), db, "sqlite3"))
}

func TestUserColumnDefaults(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	// Insert without the flag columns; profiles are private until the
	// user opts in.
	_, err := db.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash) VALUES ($1, $2, $3)`,
		"Jane Doe", "jane@example.com", "$2a$10$fakefakefakefakefakefake")
	require.NoError(t, err)

	user, err := NewUserStore(db).FindByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	require.False(t, user.IsPublic)
	require.True(t, user.IsActive)
	require.False(t, user.IsAdmin)
}
