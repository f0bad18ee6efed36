package store

import (
	"context"
	"os"
	"testing"

	mydb "github.com/TimurManjosov/gorules/internal/db"
)

// TestPostgresStore_Contract runs against a real database when
// TEST_DATABASE_URL is set. The rules table is truncated before each case.
func TestPostgresStore_Contract(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	runStoreContract(t, func(t *testing.T) Store {
		pool, err := mydb.NewPool(ctx, dsn, 4)
		if err != nil {
			t.Fatalf("NewPool failed: %v", err)
		}
		if err := mydb.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			t.Fatalf("EnsureSchema failed: %v", err)
		}
		if _, err := pool.Exec(ctx, "TRUNCATE rules"); err != nil {
			pool.Close()
			t.Fatalf("truncate failed: %v", err)
		}
		s := NewPostgresStore(pool)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
