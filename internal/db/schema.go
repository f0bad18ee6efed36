package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the rules table. The AST is stored as JSONB in the
// {"type": ..., "value": ...} document form.
const Schema = `
CREATE TABLE IF NOT EXISTS rules (
	id          UUID PRIMARY KEY,
	rule_string TEXT NOT NULL,
	ast         JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_rules_created_at ON rules (created_at, id);`

// EnsureSchema applies Schema. It is idempotent.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply rules schema: %w", err)
	}
	return nil
}
