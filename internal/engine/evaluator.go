package engine

import (
	"fmt"

	"github.com/TimurManjosov/gorules/internal/rules"
)

// Evaluate runs node against data using the default engine.
func Evaluate(node rules.Node, data map[string]any) bool {
	return defaultEngine.Evaluate(node, data)
}

// Evaluate reports whether data satisfies the rule tree. It never fails:
// missing attributes, unknown comparators, values that cannot be compared
// with the literal, and attributes outside the allow-list all yield false.
//
// Both children of an operator are always evaluated; there is no
// short-circuit.
func (e *Engine) Evaluate(node rules.Node, data map[string]any) bool {
	switch n := node.(type) {
	case *rules.Operator:
		if n == nil {
			return false
		}
		left := e.Evaluate(n.Left, data)
		right := e.Evaluate(n.Right, data)
		switch n.Symbol {
		case rules.OpAnd:
			return left && right
		case rules.OpOr:
			return left || right
		default:
			return false
		}
	case *rules.Operand:
		if n == nil {
			return false
		}
		return e.evaluateOperand(n, data)
	default:
		return false
	}
}

func (e *Engine) evaluateOperand(op *rules.Operand, data map[string]any) bool {
	check, ok := comparatorHandlers[op.Comparator]
	if !ok {
		return false
	}
	if !e.allows(op.Attribute) {
		return false
	}
	value, ok := data[op.Attribute]
	if !ok || value == nil {
		return false
	}
	c, ok := compareValue(value, parseLiteral(op.Literal))
	if !ok {
		return false
	}
	return check(c)
}

// Check validates a tree built outside the compiler (decoded from JSON, for
// instance) against the tree invariants, the literal grammar and the attribute
// allow-list. Unknown comparators pass; they evaluate to false.
func (e *Engine) Check(node rules.Node) error {
	if err := rules.Validate(node); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTree, err)
	}
	return e.checkOperands(node)
}

func (e *Engine) checkOperands(node rules.Node) error {
	switch n := node.(type) {
	case *rules.Operator:
		if err := e.checkOperands(n.Left); err != nil {
			return err
		}
		return e.checkOperands(n.Right)
	case *rules.Operand:
		if err := validateLiteral(n.Literal); err != nil {
			return fmt.Errorf("%w (attribute %q)", err, n.Attribute)
		}
		if !e.allows(n.Attribute) {
			return fmt.Errorf("%w: %q", ErrUnknownAttribute, n.Attribute)
		}
	}
	return nil
}
