package targeting

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/TimurManjosov/gorules/internal/engine"
	"github.com/TimurManjosov/gorules/internal/rules"
)

func TestApply(t *testing.T) {
	doc := []byte(`{"==": [{"var": "department"}, "Sales"]}`)

	got, err := apply(doc, map[string]any{"department": "Sales"})
	if err != nil || !got {
		t.Fatalf("apply(Sales) = %v, %v; want true", got, err)
	}
	got, err = apply(doc, map[string]any{"department": "Marketing"})
	if err != nil || got {
		t.Fatalf("apply(Marketing) = %v, %v; want false", got, err)
	}
	if _, err := apply([]byte(`{">": [`), nil); !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("apply(broken) error = %v, want ErrInvalidDocument", err)
	}
}

func TestToJSONLogic(t *testing.T) {
	node, err := engine.CompileString("age > 30 AND department = 'Sales' OR level = senior")
	if err != nil {
		t.Fatalf("CompileString failed: %v", err)
	}
	doc, err := ToJSONLogic(node)
	if err != nil {
		t.Fatalf("ToJSONLogic failed: %v", err)
	}

	got, _ := json.Marshal(doc)
	want := `{"or":[{"and":[{">":[{"var":"age"},30]},{"==":[{"var":"department"},"Sales"]}]},{"==":[{"var":"level"},"senior"]}]}`
	if string(got) != want {
		t.Fatalf("ToJSONLogic() = %s\nwant %s", got, want)
	}
}

func TestToJSONLogic_Errors(t *testing.T) {
	if _, err := ToJSONLogic(nil); !errors.Is(err, ErrUnsupportedNode) {
		t.Errorf("nil tree error = %v", err)
	}
	unknown := rules.NewOperand("x", rules.Comparator("!="), "5")
	if _, err := ToJSONLogic(unknown); !errors.Is(err, ErrUnsupportedNode) {
		t.Errorf("unknown comparator error = %v", err)
	}
}

func TestCompare_AgreesWithEngine(t *testing.T) {
	rulesToCheck := []string{
		"age > 30 AND department = 'Sales'",
		"(age > 30 AND department = 'Sales') OR (age < 25 AND department = 'Marketing')",
		"salary >= 50000 OR experience > 5",
		"age <= 40 AND (salary < 20000 OR experience >= 10)",
	}
	records := []map[string]any{
		{"age": 35.0, "department": "Sales", "salary": 60000.0, "experience": 3.0},
		{"age": 22.0, "department": "Marketing", "salary": 15000.0, "experience": 1.0},
		{"age": 45.0, "department": "Engineering", "salary": 90000.0, "experience": 12.0},
		{"age": 30, "department": "Sales", "salary": 50000, "experience": 5},
	}

	eng := engine.New(engine.WithAttributes("age", "department", "salary", "experience"))
	for _, rs := range rulesToCheck {
		node, err := eng.CompileString(rs)
		if err != nil {
			t.Fatalf("CompileString(%q) failed: %v", rs, err)
		}
		for _, rec := range records {
			cmp, err := Compare(eng, node, rec)
			if err != nil {
				t.Fatalf("Compare(%q) failed: %v", rs, err)
			}
			if !cmp.Agree() {
				t.Errorf("%q on %v: json logic %v, engine %v", rs, rec, cmp.JSONLogic, cmp.Engine)
			}
		}
	}
}

func TestCompare_ReportsDisagreement(t *testing.T) {
	// JSON Logic coerces "40" to a number; the engine only orders a numeric
	// literal against a numeric value or a numeric string, and a quoted
	// literal only against strings.
	node, err := engine.CompileString("age = '40'")
	if err != nil {
		t.Fatalf("CompileString failed: %v", err)
	}
	cmp, err := Compare(nil, node, map[string]any{"age": 40})
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if cmp.Engine || !cmp.JSONLogic || cmp.Agree() {
		t.Fatalf("Compare() = %+v, want engine false, json logic true", cmp)
	}
}

func TestCompare_UnsupportedNode(t *testing.T) {
	_, err := Compare(nil, rules.NewOperand("x", rules.Comparator("!="), "5"), nil)
	if !errors.Is(err, ErrUnsupportedNode) {
		t.Fatalf("Compare() error = %v, want ErrUnsupportedNode", err)
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		v    any
		want bool
	}{
		{nil, false}, {true, true}, {false, false}, {0.0, false}, {1.5, true},
		{"", false}, {"x", true}, {[]any{}, false}, {[]any{1}, true},
		{map[string]any{}, true},
	}
	for _, tt := range tests {
		if got := truthy(tt.v); got != tt.want {
			t.Errorf("truthy(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}
