package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/dayscape/dayscape-backend/internal/adapters/postgres"
)

// OpenMigratedPool connects to the database named by TEST_DATABASE_URL and
// applies migrations, skipping the test when the variable is unset.
func OpenMigratedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping postgres contract tests")
	}

	if err := postgres.RunMigrations(postgres.NormalizeMigrateURL(dsn)); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := postgres.NewPool(context.Background(), dsn, postgres.PoolOptions{})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}
