package targeting

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/TimurManjosov/gorules/internal/rules"
)

// ErrUnsupportedNode is returned when a tree cannot be rendered as JSON Logic.
var ErrUnsupportedNode = errors.New("rule cannot be exported to JSON Logic")

var jsonLogicOps = map[rules.Comparator]string{
	rules.OpGt:  ">",
	rules.OpLt:  "<",
	rules.OpGte: ">=",
	rules.OpLte: "<=",
	rules.OpEq:  "==",
}

// ToJSONLogic renders a rule tree as a JSON Logic document:
// AND/OR become "and"/"or", each comparison becomes
// {op: [{"var": attribute}, literal]}. Quoted literals lose their
// apostrophes, numeric literals become JSON numbers.
//
// JSON Logic compares loosely, so the document agrees with the rule
// evaluator only for records where every attribute is present and has the
// literal's type.
func ToJSONLogic(node rules.Node) (map[string]any, error) {
	if err := rules.Validate(node); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedNode, err)
	}
	return toJSONLogic(node)
}

func toJSONLogic(node rules.Node) (map[string]any, error) {
	switch n := node.(type) {
	case *rules.Operator:
		left, err := toJSONLogic(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := toJSONLogic(n.Right)
		if err != nil {
			return nil, err
		}
		op := "and"
		if n.Symbol == rules.OpOr {
			op = "or"
		}
		return map[string]any{op: []any{left, right}}, nil
	case *rules.Operand:
		op, ok := jsonLogicOps[n.Comparator]
		if !ok {
			return nil, fmt.Errorf("%w: comparator %q", ErrUnsupportedNode, n.Comparator)
		}
		return map[string]any{op: []any{map[string]any{"var": n.Attribute}, literalValue(n.Literal)}}, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedNode, node)
	}
}

func literalValue(lit string) any {
	if len(lit) >= 2 && lit[0] == '\'' && lit[len(lit)-1] == '\'' {
		return lit[1 : len(lit)-1]
	}
	if f, err := strconv.ParseFloat(lit, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	return lit
}
