package engine

import (
	"fmt"
	"strings"

	"github.com/TimurManjosov/gorules/internal/rules"
)

// precedence of the logical operators; OR binds looser than AND.
var precedence = map[rules.LogicalOp]int{
	rules.OpAnd: 1,
	rules.OpOr:  0,
}

type termKind int

const (
	termComparison termKind = iota
	termLogical
	termLParen
	termRParen
)

// term is one grammar symbol after comparison grouping: a complete
// "attribute comparator literal" comparison, a logical operator, or a paren.
type term struct {
	kind       termKind
	op         rules.LogicalOp
	comparison *rules.Operand
	pos        int
}

// Compile builds a rule tree from tokens using the default engine.
func Compile(tokens []Token) (rules.Node, error) {
	return defaultEngine.Compile(tokens)
}

// CompileString tokenizes and compiles ruleString using the default engine.
func CompileString(ruleString string) (rules.Node, error) {
	return defaultEngine.CompileString(ruleString)
}

// CompileString tokenizes and compiles ruleString.
func (e *Engine) CompileString(ruleString string) (rules.Node, error) {
	tokens, err := Tokenize(ruleString)
	if err != nil {
		return nil, err
	}
	return e.Compile(tokens)
}

// Compile builds a rule tree from tokens in two passes: infix to postfix with
// the shunting-yard algorithm, then postfix to tree with an operand stack.
// On error no partial tree is returned.
func (e *Engine) Compile(tokens []Token) (rules.Node, error) {
	if len(tokens) == 0 {
		return nil, ErrNoTokens
	}
	terms, err := e.groupComparisons(tokens)
	if err != nil {
		return nil, err
	}
	postfix, err := toPostfix(terms)
	if err != nil {
		return nil, err
	}
	return buildTree(postfix)
}

// groupComparisons folds each "attribute comparator literal" atom triple into
// a single comparison term.
func (e *Engine) groupComparisons(tokens []Token) ([]term, error) {
	terms := make([]term, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch tok.Kind {
		case TokenLParen:
			terms = append(terms, term{kind: termLParen, pos: tok.Pos})
		case TokenRParen:
			terms = append(terms, term{kind: termRParen, pos: tok.Pos})
		case TokenLogicalOp:
			terms = append(terms, term{kind: termLogical, op: rules.LogicalOp(tok.Value), pos: tok.Pos})
		case TokenAtom:
			operand, err := e.comparison(tokens[i:])
			if err != nil {
				return nil, err
			}
			terms = append(terms, term{kind: termComparison, comparison: operand, pos: tok.Pos})
			i += 2
		default:
			return nil, fmt.Errorf("%w: unexpected token %q at position %d", ErrInvalidComparison, tok.Value, tok.Pos)
		}
	}
	return terms, nil
}

func (e *Engine) comparison(tokens []Token) (*rules.Operand, error) {
	attr := tokens[0]
	if rules.IsComparator(attr.Value) {
		return nil, fmt.Errorf("%w: comparator %q at position %d has no attribute", ErrInvalidComparison, attr.Value, attr.Pos)
	}
	if len(tokens) < 2 || tokens[1].Kind != TokenAtom {
		return nil, fmt.Errorf("%w: attribute %q at position %d is not followed by a comparator", ErrInvalidComparison, attr.Value, attr.Pos)
	}
	cmp := tokens[1]
	if !rules.IsComparator(cmp.Value) {
		return nil, fmt.Errorf("%w: %q at position %d is not a comparator", ErrInvalidComparison, cmp.Value, cmp.Pos)
	}
	if len(tokens) < 3 || tokens[2].Kind != TokenAtom {
		return nil, fmt.Errorf("%w: comparison %s %s at position %d has no literal", ErrMissingOperand, attr.Value, cmp.Value, attr.Pos)
	}
	lit := tokens[2]
	if err := validateLiteral(lit.Value); err != nil {
		return nil, fmt.Errorf("%w at position %d", err, lit.Pos)
	}
	if !e.allows(attr.Value) {
		return nil, fmt.Errorf("%w: %q at position %d", ErrUnknownAttribute, attr.Value, attr.Pos)
	}
	return rules.NewOperand(attr.Value, rules.Comparator(cmp.Value), lit.Value), nil
}

// validateLiteral enforces the literal grammar: either no apostrophes at all,
// or exactly one leading and one trailing apostrophe.
func validateLiteral(lit string) error {
	n := strings.Count(lit, "'")
	switch {
	case n == 0:
		return nil
	case n == 2 && len(lit) >= 2 && lit[0] == '\'' && lit[len(lit)-1] == '\'':
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidLiteral, lit)
	}
}

func toPostfix(terms []term) ([]term, error) {
	output := make([]term, 0, len(terms))
	var stack []term

	for _, t := range terms {
		switch t.kind {
		case termLogical:
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				if top.kind != termLogical || precedence[top.op] < precedence[t.op] {
					break
				}
				output = append(output, top)
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, t)
		case termLParen:
			stack = append(stack, t)
		case termRParen:
			matched := false
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if top.kind == termLParen {
					matched = true
					break
				}
				output = append(output, top)
			}
			if !matched {
				return nil, fmt.Errorf("%w: ')' at position %d has no matching '('", ErrUnbalancedParens, t.pos)
			}
		default:
			output = append(output, t)
		}
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.kind == termLParen {
			return nil, fmt.Errorf("%w: '(' at position %d is never closed", ErrUnbalancedParens, top.pos)
		}
		output = append(output, top)
	}
	return output, nil
}

func buildTree(postfix []term) (rules.Node, error) {
	type entry struct {
		node  rules.Node
		depth int
	}
	var stack []entry
	for _, t := range postfix {
		switch t.kind {
		case termComparison:
			stack = append(stack, entry{node: t.comparison, depth: 1})
		case termLogical:
			if len(stack) < 2 {
				return nil, fmt.Errorf("%w: %s at position %d needs two operands", ErrMissingOperand, t.op, t.pos)
			}
			right := stack[len(stack)-1]
			left := stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			depth := 1 + max(left.depth, right.depth)
			if depth > rules.MaxDepth {
				return nil, fmt.Errorf("%w: %s at position %d exceeds %d levels", ErrTreeTooDeep, t.op, t.pos, rules.MaxDepth)
			}
			stack = append(stack, entry{node: rules.NewOperator(t.op, left.node, right.node), depth: depth})
		default:
			return nil, fmt.Errorf("%w: stray parenthesis at position %d", ErrUnbalancedParens, t.pos)
		}
	}
	if len(stack) != 1 {
		return nil, fmt.Errorf("%w: expression reduces to %d nodes, want 1", ErrMissingOperand, len(stack))
	}
	return stack[0].node, nil
}
