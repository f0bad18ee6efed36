package evaluation

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/TimurManjosov/gorules/internal/engine"
	"github.com/TimurManjosov/gorules/internal/rules"
	"github.com/TimurManjosov/gorules/internal/store"
)

// countingStore records how many writes reach the wrapped store.
type countingStore struct {
	store.Store
	writes atomic.Int32
}

func (c *countingStore) Save(ctx context.Context, rs string, ast rules.Node) (*store.Rule, error) {
	c.writes.Add(1)
	return c.Store.Save(ctx, rs, ast)
}

func (c *countingStore) Update(ctx context.Context, id, rs string, ast rules.Node) (*store.Rule, error) {
	c.writes.Add(1)
	return c.Store.Update(ctx, id, rs, ast)
}

func newTestService(t *testing.T) (*Service, *countingStore) {
	t.Helper()
	st := &countingStore{Store: store.NewMemoryStore()}
	eng := engine.New(engine.WithAttributes("age", "department", "salary", "experience"))
	return NewService(st, eng, zerolog.Nop()), st
}

func TestCreateRule(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rule, err := svc.CreateRule(ctx, "age > 30 AND department = 'Sales'")
	if err != nil {
		t.Fatalf("CreateRule failed: %v", err)
	}
	if rule.ID == "" {
		t.Fatal("expected generated id")
	}
	if got := rules.String(rule.AST); got != "age > 30 AND department = 'Sales'" {
		t.Errorf("AST = %q", got)
	}

	fetched, err := svc.GetRule(ctx, rule.ID)
	if err != nil {
		t.Fatalf("GetRule failed: %v", err)
	}
	if !rules.Equal(fetched.AST, rule.AST) {
		t.Error("fetched tree differs from created tree")
	}
	if n := len(svc.Snapshot().Rules); n != 1 {
		t.Errorf("snapshot holds %d rules, want 1", n)
	}
}

func TestCreateRule_MalformedDoesNotTouchStore(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	for _, rs := range []string{"", "age >", "(age > 30", "name = 'x'", "age > O'Brien"} {
		_, err := svc.CreateRule(ctx, rs)
		if !IsMalformed(err) {
			t.Errorf("CreateRule(%q) error = %v, want malformed", rs, err)
		}
	}
	if n := st.writes.Load(); n != 0 {
		t.Fatalf("store saw %d writes, want 0", n)
	}
}

func TestCreateRule_TooDeep(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	parts := make([]string, 600)
	for i := range parts {
		parts[i] = "age > 1"
	}
	_, err := svc.CreateRule(ctx, strings.Join(parts, " AND "))
	if !IsMalformed(err) || !errors.Is(err, engine.ErrTreeTooDeep) {
		t.Fatalf("CreateRule error = %v, want malformed ErrTreeTooDeep", err)
	}
	if n := st.writes.Load(); n != 0 {
		t.Fatalf("store saw %d writes, want 0", n)
	}
}

func TestModifyRule(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	rule, err := svc.CreateRule(ctx, "age > 30")
	if err != nil {
		t.Fatalf("CreateRule failed: %v", err)
	}
	before := svc.Snapshot().ETag

	updated, err := svc.ModifyRule(ctx, rule.ID, "age > 40 OR salary >= 50000")
	if err != nil {
		t.Fatalf("ModifyRule failed: %v", err)
	}
	if updated.RuleString != "age > 40 OR salary >= 50000" || updated.ID != rule.ID {
		t.Fatalf("unexpected updated rule: %+v", updated)
	}
	if svc.Snapshot().ETag == before {
		t.Error("snapshot ETag did not change after modify")
	}

	writes := st.writes.Load()
	if _, err := svc.ModifyRule(ctx, rule.ID, "age >"); !IsMalformed(err) {
		t.Fatalf("ModifyRule malformed error = %v", err)
	}
	if st.writes.Load() != writes {
		t.Fatal("malformed modify reached the store")
	}
	current, _ := svc.GetRule(ctx, rule.ID)
	if current.RuleString != "age > 40 OR salary >= 50000" {
		t.Errorf("rule changed after failed modify: %q", current.RuleString)
	}

	if _, err := svc.ModifyRule(ctx, "00000000-0000-0000-0000-000000000000", "age > 1"); !IsNotFound(err) {
		t.Errorf("ModifyRule missing error = %v, want not found", err)
	}
}

func TestDeleteRule(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rule, _ := svc.CreateRule(ctx, "age > 30")
	if err := svc.DeleteRule(ctx, rule.ID); err != nil {
		t.Fatalf("DeleteRule failed: %v", err)
	}
	if _, err := svc.GetRule(ctx, rule.ID); !IsNotFound(err) {
		t.Errorf("GetRule after delete error = %v", err)
	}
	if err := svc.DeleteRule(ctx, rule.ID); !IsNotFound(err) {
		t.Errorf("second delete error = %v", err)
	}
	if n := len(svc.Snapshot().Rules); n != 0 {
		t.Errorf("snapshot holds %d rules, want 0", n)
	}
}

func TestListRules_CreationOrder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	want := []string{"age > 1", "age > 2", "age > 3"}
	for _, rs := range want {
		if _, err := svc.CreateRule(ctx, rs); err != nil {
			t.Fatalf("CreateRule failed: %v", err)
		}
	}
	all, err := svc.ListRules(ctx)
	if err != nil {
		t.Fatalf("ListRules failed: %v", err)
	}
	if len(all) != len(want) {
		t.Fatalf("got %d rules, want %d", len(all), len(want))
	}
	for i := range want {
		if all[i].RuleString != want[i] {
			t.Errorf("rule %d = %q, want %q", i, all[i].RuleString, want[i])
		}
	}
}

func TestCombineRuleStrings(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	node, err := svc.CombineRuleStrings(ctx, []string{"age > 30", "department = 'Sales'", "salary >= 1000"})
	if err != nil {
		t.Fatalf("CombineRuleStrings failed: %v", err)
	}
	if got := rules.String(node); got != "(age > 30 AND department = 'Sales') AND salary >= 1000" {
		t.Errorf("combined = %q", got)
	}

	if _, err := svc.CombineRuleStrings(ctx, nil); !errors.Is(err, engine.ErrEmptyRuleSet) {
		t.Errorf("empty combine error = %v", err)
	}
	if _, err := svc.CombineRuleStrings(ctx, []string{"age > 1", "age >"}); !IsMalformed(err) {
		t.Errorf("malformed combine error = %v", err)
	}
}

func TestCombineRuleIDs(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, _ := svc.CreateRule(ctx, "age > 30")
	b, _ := svc.CreateRule(ctx, "experience >= 5")

	node, err := svc.CombineRuleIDs(ctx, []string{b.ID, a.ID})
	if err != nil {
		t.Fatalf("CombineRuleIDs failed: %v", err)
	}
	if got := rules.String(node); got != "experience >= 5 AND age > 30" {
		t.Errorf("combined = %q", got)
	}

	node, err = svc.CombineRuleIDs(ctx, []string{a.ID, a.ID})
	if err != nil {
		t.Fatalf("CombineRuleIDs with a repeated id failed: %v", err)
	}
	if root := node.(*rules.Operator); root.Left == root.Right {
		t.Error("repeated id produced shared subtrees")
	}

	if _, err := svc.CombineRuleIDs(ctx, []string{a.ID, "missing"}); !IsNotFound(err) {
		t.Errorf("missing id error = %v, want not found", err)
	}
}

func TestEvaluateRule(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rule, _ := svc.CreateRule(ctx, "(age > 30 AND department = 'Sales') OR experience >= 10")

	tests := []struct {
		data map[string]any
		want bool
	}{
		{map[string]any{"age": 35, "department": "Sales"}, true},
		{map[string]any{"age": 25, "department": "Sales", "experience": 12}, true},
		{map[string]any{"age": 35, "department": "Marketing", "experience": 1}, false},
		{map[string]any{}, false},
	}
	for _, tt := range tests {
		got, err := svc.EvaluateRule(ctx, rule.ID, tt.data)
		if err != nil {
			t.Fatalf("EvaluateRule failed: %v", err)
		}
		if got != tt.want {
			t.Errorf("EvaluateRule(%v) = %v, want %v", tt.data, got, tt.want)
		}
	}

	if _, err := svc.EvaluateRule(ctx, "missing", nil); !IsNotFound(err) {
		t.Errorf("missing rule error = %v", err)
	}
}

func TestEvaluateAST(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	node := rules.NewOperand("salary", rules.OpGte, "50000")
	got, err := svc.EvaluateAST(ctx, node, map[string]any{"salary": 60000})
	if err != nil || !got {
		t.Fatalf("EvaluateAST = %v, %v; want true, nil", got, err)
	}

	if _, err := svc.EvaluateAST(ctx, nil, nil); !errors.Is(err, engine.ErrInvalidTree) {
		t.Errorf("nil tree error = %v", err)
	}
	if _, err := svc.EvaluateAST(ctx, rules.NewOperand("height", rules.OpGt, "1"), nil); !errors.Is(err, engine.ErrUnknownAttribute) {
		t.Errorf("unknown attribute error = %v", err)
	}
	ok, err := svc.EvaluateAST(ctx, rules.NewOperand("department", rules.OpEq, "O'Brien"), map[string]any{"department": "O'Brien"})
	if !IsMalformed(err) || ok {
		t.Errorf("EvaluateAST with bad literal = %v, %v; want false, malformed", ok, err)
	}
}

func TestCompileRule(t *testing.T) {
	svc, st := newTestService(t)

	res, err := svc.CompileRule(context.Background(), "age > 30 OR department = 'Sales' AND salary < 10")
	if err != nil {
		t.Fatalf("CompileRule failed: %v", err)
	}
	if res.Operands != 3 {
		t.Errorf("Operands = %d, want 3", res.Operands)
	}
	if res.Canonical != "age > 30 OR (department = 'Sales' AND salary < 10)" {
		t.Errorf("Canonical = %q", res.Canonical)
	}
	if st.writes.Load() != 0 {
		t.Error("compile dry run wrote to the store")
	}
}

func TestSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	// the package tracer delegates to the first provider installed globally
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	svc, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.CreateRule(ctx, "age > 30"); err != nil {
		t.Fatalf("CreateRule failed: %v", err)
	}
	if _, err := svc.CreateRule(ctx, "age >"); err == nil {
		t.Fatal("expected malformed error")
	}

	names := map[string]int{}
	var failed int
	for _, span := range exporter.GetSpans() {
		names[span.Name]++
		if len(span.Events) > 0 && span.Events[0].Name == "exception" {
			failed++
		}
	}
	if names["rules.create"] != 2 || names["rules.compile"] != 2 {
		t.Errorf("spans = %v, want two create and two compile spans", names)
	}
	if failed != 2 {
		t.Errorf("spans with recorded errors = %d, want 2", failed)
	}
}
