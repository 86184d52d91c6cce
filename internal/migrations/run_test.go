package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func getTestDB(t *testing.T) (*sql.DB, func()) {
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)

	cleanup := func() {
		_ = db.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return db, cleanup
}

func getMigrationsPath(t *testing.T) string {
	projectRoot, err := filepath.Abs("../..")
	require.NoError(t, err)

	migrationsPath := filepath.Join(projectRoot, "migrations")
	t.Logf("Migrations path: %s", migrationsPath)
	return migrationsPath
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = $1
		)
	`, name).Scan(&exists)
	require.NoError(t, err)
	return exists
}

func TestRunMigrations(t *testing.T) {
	db, cleanup := getTestDB(t)
	defer cleanup()

	err := Run(db, getMigrationsPath(t))
	require.NoError(t, err)

	require.True(t, tableExists(t, db, "subscribers"), "Table 'subscribers' should exist")
	require.True(t, tableExists(t, db, "consent_records"), "Table 'consent_records' should exist")

	var exists bool
	err = db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM pg_indexes
			WHERE schemaname = 'public'
			AND tablename = 'subscribers'
			AND indexname = 'idx_subscribers_active_email'
		)
	`).Scan(&exists)
	require.NoError(t, err)
	require.True(t, exists, "Index should exist")
}

func TestMigrationIdempotency(t *testing.T) {
	db, cleanup := getTestDB(t)
	defer cleanup()

	migrationsPath := getMigrationsPath(t)

	require.NoError(t, Run(db, migrationsPath))
	require.NoError(t, Run(db, migrationsPath), "running migrations twice should not fail")
	require.True(t, tableExists(t, db, "subscribers"))
}

func TestRunInvalidPath(t *testing.T) {
	db, cleanup := getTestDB(t)
	defer cleanup()

	err := Run(db, "/nonexistent/migrations")
	require.Error(t, err)
}
