package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/TimurManjosov/gorules/internal/rules"

	_ "modernc.org/sqlite"
)

const ruleSQLiteSchema = `
CREATE TABLE IF NOT EXISTS rules (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	rule_string TEXT NOT NULL,
	ast BLOB NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`

const sqliteSelectColumns = "id, rule_string, ast, created_at, updated_at"

// SQLiteStore persists rules in a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite-backed rule store at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("rule sqlite store path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("rule sqlite store open: %w", err)
	}
	// One connection serialises writers and keeps the per-connection pragmas.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("rule sqlite store set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("rule sqlite store set busy timeout: %w", err)
	}
	if _, err := db.Exec(ruleSQLiteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("rule sqlite store create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, ruleString string, ast rules.Node) (*Rule, error) {
	if err := checkWrite(ruleString, ast); err != nil {
		return nil, err
	}
	doc, err := rules.MarshalNode(ast)
	if err != nil {
		return nil, err
	}
	now := formatSQLiteTime(time.Now())
	row := s.db.QueryRowContext(ctx, `
INSERT INTO rules (id, rule_string, ast, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
RETURNING `+sqliteSelectColumns,
		uuid.NewString(), ruleString, doc, now, now)
	r, err := scanSQLiteRule(row)
	if err != nil {
		return nil, fmt.Errorf("rule sqlite store save: %w", err)
	}
	return r, nil
}

func (s *SQLiteStore) FetchByID(ctx context.Context, id string) (*Rule, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT `+sqliteSelectColumns+`
FROM rules
WHERE id = ?`, id)
	return scanSQLiteRule(row)
}

func (s *SQLiteStore) Update(ctx context.Context, id, ruleString string, ast rules.Node) (*Rule, error) {
	if err := checkWrite(ruleString, ast); err != nil {
		return nil, err
	}
	doc, err := rules.MarshalNode(ast)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `
UPDATE rules
SET rule_string = ?, ast = ?, updated_at = ?
WHERE id = ?
RETURNING `+sqliteSelectColumns,
		ruleString, doc, formatSQLiteTime(time.Now()), id)
	return scanSQLiteRule(row)
}

func (s *SQLiteStore) ListAll(ctx context.Context) ([]Rule, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+sqliteSelectColumns+`
FROM rules
ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("rule sqlite store list: %w", err)
	}
	defer rows.Close()

	result := make([]Rule, 0)
	for rows.Next() {
		r, err := scanSQLiteRule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rule sqlite store list: %w", err)
	}
	return result, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("rule sqlite store delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rule sqlite store delete: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type sqliteScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRule(row sqliteScanner) (*Rule, error) {
	var (
		r                    Rule
		doc                  []byte
		createdAt, updatedAt string
	)
	if err := row.Scan(&r.ID, &r.RuleString, &doc, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	ast, err := rules.UnmarshalNode(doc)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", r.ID, err)
	}
	r.AST = ast
	if r.CreatedAt, err = parseSQLiteTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseSQLiteTime(updatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseSQLiteTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse sqlite time %q: %w", value, err)
	}
	return t.UTC(), nil
}
