package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TimurManjosov/gorules/internal/rules"
)

// MemoryStore is an in-memory implementation of the Store interface.
// It uses a map for storage and RWMutex for thread-safe concurrent access.
// This implementation is suitable for development, testing, or single-instance deployments.
type MemoryStore struct {
	mu    sync.RWMutex
	rules map[string]memoryRule // id -> rule
	seq   uint64
	now   func() time.Time
}

type memoryRule struct {
	rule Rule
	seq  uint64
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rules: make(map[string]memoryRule),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Save stores a new rule under a fresh UUID.
func (m *MemoryStore) Save(ctx context.Context, ruleString string, ast rules.Node) (*Rule, error) {
	if err := checkWrite(ruleString, ast); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.seq++
	r := Rule{
		ID:         uuid.NewString(),
		RuleString: ruleString,
		AST:        ast,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m.rules[r.ID] = memoryRule{rule: r, seq: m.seq}
	return &r, nil
}

// FetchByID retrieves a single rule by its ID.
func (m *MemoryStore) FetchByID(ctx context.Context, id string) (*Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, exists := m.rules[id]
	if !exists {
		return nil, ErrNotFound
	}
	r := entry.rule
	return &r, nil
}

// Update swaps the rule string and AST under the write lock.
func (m *MemoryStore) Update(ctx context.Context, id, ruleString string, ast rules.Node) (*Rule, error) {
	if err := checkWrite(ruleString, ast); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.rules[id]
	if !exists {
		return nil, ErrNotFound
	}
	entry.rule.RuleString = ruleString
	entry.rule.AST = ast
	entry.rule.UpdatedAt = m.now()
	m.rules[id] = entry

	r := entry.rule
	return &r, nil
}

// ListAll returns rules in insertion order.
func (m *MemoryStore) ListAll(ctx context.Context) ([]Rule, error) {
	m.mu.RLock()
	entries := make([]memoryRule, 0, len(m.rules))
	for _, entry := range m.rules {
		entries = append(entries, entry)
	}
	m.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	result := make([]Rule, len(entries))
	for i, entry := range entries {
		result[i] = entry.rule
	}
	return result, nil
}

// Delete removes a rule from memory.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.rules[id]; !exists {
		return ErrNotFound
	}
	delete(m.rules, id)
	return nil
}

// Close is a no-op for MemoryStore as there are no resources to release.
func (m *MemoryStore) Close() error {
	return nil
}
