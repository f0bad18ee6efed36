package engine

import (
	"errors"
	"testing"

	"github.com/TimurManjosov/gorules/internal/rules"
)

func TestCombine_LeftFold(t *testing.T) {
	r0 := rules.NewOperand("a", rules.OpGt, "1")
	r1 := rules.NewOperand("b", rules.OpGt, "2")
	r2 := rules.NewOperand("c", rules.OpGt, "3")

	got, err := Combine([]rules.Node{r0, r1, r2})
	if err != nil {
		t.Fatalf("Combine() error = %v", err)
	}
	want := rules.NewOperator(rules.OpAnd, rules.NewOperator(rules.OpAnd, r0, r1), r2)
	if !rules.Equal(got, want) {
		t.Fatalf("Combine() = %s, want %s", rules.String(got), rules.String(want))
	}
}

func TestCombine_Single(t *testing.T) {
	r0 := rules.NewOperand("a", rules.OpGt, "1")
	got, err := Combine([]rules.Node{r0})
	if err != nil {
		t.Fatalf("Combine() error = %v", err)
	}
	if !rules.Equal(got, r0) {
		t.Fatalf("Combine() = %s, want %s", rules.String(got), rules.String(r0))
	}
	if got == r0 {
		t.Fatal("Combine() should copy its input")
	}
}

func TestCombine_RepeatedInputIsNotShared(t *testing.T) {
	r := mustCompile(t, "age > 30 AND department = 'Sales'")
	got, err := Combine([]rules.Node{r, r})
	if err != nil {
		t.Fatalf("Combine() error = %v", err)
	}
	root, ok := got.(*rules.Operator)
	if !ok {
		t.Fatalf("Combine() = %T, want *rules.Operator", got)
	}
	if root.Left == root.Right || root.Left == r || root.Right == r {
		t.Fatal("combined tree shares nodes")
	}
	if !rules.Equal(root.Left, root.Right) {
		t.Fatal("both halves should equal the input")
	}
}

func TestCombine_DepthLimit(t *testing.T) {
	deep := mustCompile(t, chain(rules.MaxDepth))
	node, err := Combine([]rules.Node{deep, deep})
	if !errors.Is(err, ErrTreeTooDeep) || !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("Combine() error = %v, want ErrTreeTooDeep", err)
	}
	if node != nil {
		t.Fatal("Combine() returned a partial tree")
	}

	shallow := mustCompile(t, chain(rules.MaxDepth-1))
	if _, err := Combine([]rules.Node{shallow, rules.NewOperand("a", rules.OpGt, "1")}); err != nil {
		t.Fatalf("Combine() at the limit error = %v", err)
	}
}

func TestCombine_Errors(t *testing.T) {
	if _, err := Combine(nil); !errors.Is(err, ErrEmptyRuleSet) || !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("Combine(nil) error = %v, want ErrEmptyRuleSet", err)
	}
	valid := rules.NewOperand("a", rules.OpGt, "1")
	node, err := Combine([]rules.Node{valid, nil})
	if !errors.Is(err, ErrInvalidTree) {
		t.Fatalf("Combine() error = %v, want ErrInvalidTree", err)
	}
	if node != nil {
		t.Fatalf("Combine() returned partial tree %s", rules.String(node))
	}
}

func TestCombine_Evaluate(t *testing.T) {
	var nodes []rules.Node
	for _, s := range []string{
		"age > 30 AND department = 'Sales'",
		"salary > 20000 OR experience > 5",
	} {
		nodes = append(nodes, mustCompile(t, s))
	}
	combined, err := Combine(nodes)
	if err != nil {
		t.Fatalf("Combine() error = %v", err)
	}

	data := map[string]any{"age": 35, "department": "Sales", "salary": 10000, "experience": 6}
	if !Evaluate(combined, data) {
		t.Fatal("combined rule should match")
	}
	data["experience"] = 2
	if Evaluate(combined, data) {
		t.Fatal("combined rule should not match when the second rule fails")
	}
}
