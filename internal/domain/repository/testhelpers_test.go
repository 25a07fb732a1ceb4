package repository

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"voice_motto/internal/platform/database"

	"github.com/stretchr/testify/require"
)

// setupTestDB connects to TEST_DATABASE_URL and applies the schema.
// Tests are skipped when it is not set.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping postgres integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, url)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(ctx, db))
	t.Cleanup(func() { db.Close() })
	return db
}
