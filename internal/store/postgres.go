package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TimurManjosov/gorules/internal/rules"
)

const (
	pgInsertRule = `
INSERT INTO rules (id, rule_string, ast, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
RETURNING id::text, rule_string, ast, created_at, updated_at`

	pgSelectRule = `
SELECT id::text, rule_string, ast, created_at, updated_at
FROM rules
WHERE id = $1`

	pgUpdateRule = `
UPDATE rules
SET rule_string = $2, ast = $3, updated_at = $4
WHERE id = $1
RETURNING id::text, rule_string, ast, created_at, updated_at`

	pgListRules = `
SELECT id::text, rule_string, ast, created_at, updated_at
FROM rules
ORDER BY created_at, id`

	pgDeleteRule = `DELETE FROM rules WHERE id = $1`
)

// PostgresStore is a PostgreSQL implementation of the Store interface.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store. The rules table
// must already exist (see db.EnsureSchema).
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Save inserts a new rule.
func (p *PostgresStore) Save(ctx context.Context, ruleString string, ast rules.Node) (*Rule, error) {
	if err := checkWrite(ruleString, ast); err != nil {
		return nil, err
	}
	doc, err := rules.MarshalNode(ast)
	if err != nil {
		return nil, err
	}

	row := p.pool.QueryRow(ctx, pgInsertRule, uuid.New(), ruleString, doc, time.Now().UTC())
	return scanRule(row)
}

// FetchByID retrieves a single rule by its ID from the database.
func (p *PostgresStore) FetchByID(ctx context.Context, id string) (*Rule, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return scanRule(p.pool.QueryRow(ctx, pgSelectRule, uid))
}

// Update rewrites rule_string and ast in a single statement.
func (p *PostgresStore) Update(ctx context.Context, id, ruleString string, ast rules.Node) (*Rule, error) {
	if err := checkWrite(ruleString, ast); err != nil {
		return nil, err
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	doc, err := rules.MarshalNode(ast)
	if err != nil {
		return nil, err
	}
	return scanRule(p.pool.QueryRow(ctx, pgUpdateRule, uid, ruleString, doc, time.Now().UTC()))
}

// ListAll retrieves all rules ordered by creation time.
func (p *PostgresStore) ListAll(ctx context.Context) ([]Rule, error) {
	rows, err := p.pool.Query(ctx, pgListRules)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	result := make([]Rule, 0)
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	return result, nil
}

// Delete removes a rule from the database.
func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	tag, err := p.pool.Exec(ctx, pgDeleteRule, uid)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database connection pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

func scanRule(row pgx.Row) (*Rule, error) {
	var (
		r   Rule
		doc []byte
	)
	if err := row.Scan(&r.ID, &r.RuleString, &doc, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	ast, err := rules.UnmarshalNode(doc)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", r.ID, err)
	}
	r.AST = ast
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return &r, nil
}
