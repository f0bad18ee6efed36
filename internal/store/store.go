package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/TimurManjosov/gorules/internal/rules"
)

// ErrNotFound is returned when a rule id does not exist.
var ErrNotFound = errors.New("rule not found")

// Store defines the interface for rule persistence operations.
// Implementations must be thread-safe and support concurrent access.
type Store interface {
	// Save persists a new rule and returns it with its generated ID.
	Save(ctx context.Context, ruleString string, ast rules.Node) (*Rule, error)

	// FetchByID retrieves a single rule. Returns ErrNotFound if it does not exist.
	FetchByID(ctx context.Context, id string) (*Rule, error)

	// Update replaces the rule string and AST of an existing rule in one
	// atomic step. Returns ErrNotFound if the rule does not exist.
	Update(ctx context.Context, id, ruleString string, ast rules.Node) (*Rule, error)

	// ListAll returns every rule ordered by creation time.
	ListAll(ctx context.Context) ([]Rule, error)

	// Delete removes a rule. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	// After Close is called, the store should not be used.
	Close() error
}

// Rule is a persisted rule: its source string and the compiled tree.
type Rule struct {
	ID         string     `json:"id"`
	RuleString string     `json:"ruleString"`
	AST        rules.Node `json:"ast"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// UnmarshalJSON decodes a rule, including its polymorphic AST.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID         string          `json:"id"`
		RuleString string          `json:"ruleString"`
		AST        json.RawMessage `json:"ast"`
		CreatedAt  time.Time       `json:"createdAt"`
		UpdatedAt  time.Time       `json:"updatedAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ast, err := rules.UnmarshalNode(raw.AST)
	if err != nil {
		return fmt.Errorf("rule %s: %w", raw.ID, err)
	}
	*r = Rule{
		ID:         raw.ID,
		RuleString: raw.RuleString,
		AST:        ast,
		CreatedAt:  raw.CreatedAt,
		UpdatedAt:  raw.UpdatedAt,
	}
	return nil
}

// checkWrite rejects trees that must never be persisted.
func checkWrite(ruleString string, ast rules.Node) error {
	if ruleString == "" {
		return errors.New("rule string must not be empty")
	}
	if err := rules.Validate(ast); err != nil {
		return fmt.Errorf("refusing to persist rule: %w", err)
	}
	return nil
}
