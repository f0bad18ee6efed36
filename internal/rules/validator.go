package rules

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by Validate.
var (
	ErrEmptyTree       = errors.New("empty rule tree")
	ErrInvalidOperator = errors.New("invalid operator node")
	ErrInvalidOperand  = errors.New("invalid operand node")
	ErrUnknownNodeType = errors.New("unknown node type")
	ErrTreeTooDeep     = errors.New("rule tree too deep")
)

// MaxDepth bounds the nesting of a tree accepted from outside the compiler.
const MaxDepth = 512

// Validate checks that node is a well-formed rule tree: operators carry AND/OR
// and two children, leaves are complete operands. It never mutates node.
func Validate(node Node) error {
	if isNil(node) {
		return ErrEmptyTree
	}
	return validateNode(node, 1)
}

func validateNode(node Node, depth int) error {
	if depth > MaxDepth {
		return fmt.Errorf("%w: exceeds %d levels", ErrTreeTooDeep, MaxDepth)
	}

	switch n := node.(type) {
	case *Operator:
		if n == nil {
			return ErrEmptyTree
		}
		if !IsLogicalOp(string(n.Symbol)) {
			return fmt.Errorf("%w: symbol %q is not AND or OR", ErrInvalidOperator, n.Symbol)
		}
		if isNil(n.Left) || isNil(n.Right) {
			return fmt.Errorf("%w: %s requires two operands", ErrInvalidOperator, n.Symbol)
		}
		if err := validateNode(n.Left, depth+1); err != nil {
			return err
		}
		return validateNode(n.Right, depth+1)

	case *Operand:
		if n == nil {
			return ErrEmptyTree
		}
		if n.Attribute == "" {
			return fmt.Errorf("%w: attribute must not be empty", ErrInvalidOperand)
		}
		if n.Comparator == "" {
			return fmt.Errorf("%w: comparator must not be empty", ErrInvalidOperand)
		}
		if n.Literal == "" {
			return fmt.Errorf("%w: literal must not be empty", ErrInvalidOperand)
		}
		return nil

	default:
		return fmt.Errorf("%w: %T", ErrUnknownNodeType, node)
	}
}

// CountOperands returns the number of comparison leaves in the tree.
func CountOperands(node Node) int {
	switch n := node.(type) {
	case *Operator:
		if n == nil {
			return 0
		}
		return CountOperands(n.Left) + CountOperands(n.Right)
	case *Operand:
		if n == nil {
			return 0
		}
		return 1
	default:
		return 0
	}
}

// Depth returns the number of levels in the tree; a single operand has depth 1.
func Depth(node Node) int {
	switch n := node.(type) {
	case *Operator:
		if n == nil {
			return 0
		}
		return 1 + max(Depth(n.Left), Depth(n.Right))
	case *Operand:
		if n == nil {
			return 0
		}
		return 1
	default:
		return 0
	}
}

// Clone returns a deep copy of the tree. Unknown node types are returned as is.
func Clone(node Node) Node {
	switch n := node.(type) {
	case *Operator:
		if n == nil {
			return nil
		}
		return NewOperator(n.Symbol, Clone(n.Left), Clone(n.Right))
	case *Operand:
		if n == nil {
			return nil
		}
		return NewOperand(n.Attribute, n.Comparator, n.Literal)
	default:
		return node
	}
}

// Attributes returns the attribute names referenced by the tree, in
// left-to-right order without duplicates.
func Attributes(node Node) []string {
	seen := make(map[string]struct{})
	var out []string
	var walk func(Node)
	walk = func(n Node) {
		switch v := n.(type) {
		case *Operator:
			if v == nil {
				return
			}
			walk(v.Left)
			walk(v.Right)
		case *Operand:
			if v == nil {
				return
			}
			if _, ok := seen[v.Attribute]; !ok {
				seen[v.Attribute] = struct{}{}
				out = append(out, v.Attribute)
			}
		}
	}
	walk(node)
	return out
}

// Equal reports whether a and b are structurally identical trees.
func Equal(a, b Node) bool {
	if isNil(a) || isNil(b) {
		return isNil(a) && isNil(b)
	}
	switch x := a.(type) {
	case *Operator:
		y, ok := b.(*Operator)
		return ok && x.Symbol == y.Symbol && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case *Operand:
		y, ok := b.(*Operand)
		return ok && *x == *y
	default:
		return false
	}
}

// String renders the tree back into rule syntax. Nested operators are
// parenthesized so that recompiling the output yields an equal tree.
func String(node Node) string {
	var sb strings.Builder
	writeNode(&sb, node, true)
	return sb.String()
}

func writeNode(sb *strings.Builder, node Node, root bool) {
	switch n := node.(type) {
	case *Operator:
		if n == nil {
			return
		}
		if !root {
			sb.WriteByte('(')
		}
		writeNode(sb, n.Left, false)
		sb.WriteByte(' ')
		sb.WriteString(string(n.Symbol))
		sb.WriteByte(' ')
		writeNode(sb, n.Right, false)
		if !root {
			sb.WriteByte(')')
		}
	case *Operand:
		if n == nil {
			return
		}
		sb.WriteString(n.Attribute)
		sb.WriteByte(' ')
		sb.WriteString(string(n.Comparator))
		sb.WriteByte(' ')
		sb.WriteString(n.Literal)
	}
}

// isNil catches both a nil interface and a typed nil pointer.
func isNil(node Node) bool {
	switch n := node.(type) {
	case nil:
		return true
	case *Operator:
		return n == nil
	case *Operand:
		return n == nil
	default:
		return false
	}
}
