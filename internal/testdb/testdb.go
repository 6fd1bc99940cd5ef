// Package testdb starts a throwaway PostgreSQL for repository tests.
package testdb

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	database "github.com/sebuszqo/PayBillsWithUs/internal/db"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const image = "docker.io/postgres:16-alpine"

// New returns a migrated database backed by a fresh container.
// It skips the test under -short or when no container runtime is reachable.
func New(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage(image),
		postgres.WithDatabase("paybills"),
		postgres.WithUsername("paybills"),
		postgres.WithPassword("paybills"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("could not start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("could not terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("could not build connection string: %v", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("could not open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("could not migrate database: %v", err)
	}
	return db
}

// Customer inserts a minimal customer row with the given id.
func Customer(t *testing.T, db *sql.DB, id, email, customerNumber string) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO users (id, email, password_hash, first_name, last_name, customer_number, date_of_birth,
		                   ssn_last4, phone, address_line1, address_line2, city, state, postal_code)
		VALUES ($1, $2, 'hash', 'Ada', 'Lovelace', $3, '1990-01-02', '1234', '555-0100',
		        '1 Main St', NULL, 'Springfield', 'IL', '62701')`,
		id, email, customerNumber)
	if err != nil {
		t.Fatalf("could not insert customer: %v", err)
	}
}
