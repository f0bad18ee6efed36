package rules

// LogicalOp joins two subtrees of a rule.
type LogicalOp string

// Supported logical operators. AND binds tighter than OR.
const (
	OpAnd LogicalOp = "AND"
	OpOr  LogicalOp = "OR"
)

// Comparator compares a record attribute with a literal.
type Comparator string

// Supported comparators (string values double as the rule-language symbols).
const (
	OpGt  Comparator = ">"
	OpLt  Comparator = "<"
	OpGte Comparator = ">="
	OpLte Comparator = "<="
	OpEq  Comparator = "="
)

var validComparators = map[Comparator]struct{}{
	OpGt:  {},
	OpLt:  {},
	OpGte: {},
	OpLte: {},
	OpEq:  {},
}

// IsComparator reports whether s is one of the comparator symbols.
func IsComparator(s string) bool {
	_, ok := validComparators[Comparator(s)]
	return ok
}

// IsLogicalOp reports whether s is AND or OR.
func IsLogicalOp(s string) bool {
	return s == string(OpAnd) || s == string(OpOr)
}

// Node is a node of a compiled rule tree: either an *Operator or an *Operand.
// Nodes are never mutated after construction and are owned by exactly one
// parent; use Clone before grafting an existing tree into a new one.
type Node interface {
	node()
}

// Operator combines two subtrees with AND or OR.
type Operator struct {
	Symbol LogicalOp
	Left   Node
	Right  Node
}

func (*Operator) node() {}

// Operand is a leaf comparison: Attribute Comparator Literal.
// Literal keeps its lexical form ('text', 30, Sales) until evaluation.
type Operand struct {
	Attribute  string
	Comparator Comparator
	Literal    string
}

func (*Operand) node() {}

// NewOperator returns a new operator node owning left and right.
func NewOperator(symbol LogicalOp, left, right Node) *Operator {
	return &Operator{Symbol: symbol, Left: left, Right: right}
}

// NewOperand returns a new comparison leaf.
func NewOperand(attribute string, comparator Comparator, literal string) *Operand {
	return &Operand{Attribute: attribute, Comparator: comparator, Literal: literal}
}
