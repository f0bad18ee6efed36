package store

import (
	"context"
	"fmt"

	mydb "github.com/TimurManjosov/gorules/internal/db"
)

// Store types accepted by NewStore.
const (
	TypeMemory   = "memory"
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
)

// NewStore creates a new store based on the given store type.
// dsn is a PostgreSQL connection string for "postgres" and a file path for
// "sqlite"; it is ignored for "memory".
func NewStore(ctx context.Context, storeType, dsn string) (Store, error) {
	switch storeType {
	case TypeMemory:
		return NewMemoryStore(), nil
	case TypePostgres:
		pool, err := mydb.NewPool(ctx, dsn, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		if err := mydb.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return NewPostgresStore(pool), nil
	case TypeSQLite:
		s, err := NewSQLiteStore(dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeType)
	}
}
