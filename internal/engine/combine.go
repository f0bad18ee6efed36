package engine

import (
	"fmt"

	"github.com/TimurManjosov/gorules/internal/rules"
)

// Combine left-folds nodes with AND: ((r0 AND r1) AND r2) ... AND rn.
// The inputs are copied, so the result never shares nodes with them and the
// same tree may appear more than once in nodes.
func Combine(nodes []rules.Node) (rules.Node, error) {
	if len(nodes) == 0 {
		return nil, ErrEmptyRuleSet
	}
	depth := 0
	for i, n := range nodes {
		if err := rules.Validate(n); err != nil {
			return nil, fmt.Errorf("%w: rule %d: %w", ErrInvalidTree, i, err)
		}
		if i == 0 {
			depth = rules.Depth(n)
			continue
		}
		depth = 1 + max(depth, rules.Depth(n))
		if depth > rules.MaxDepth {
			return nil, fmt.Errorf("%w: combining rule %d exceeds %d levels", ErrTreeTooDeep, i, rules.MaxDepth)
		}
	}

	combined := rules.Clone(nodes[0])
	for _, n := range nodes[1:] {
		combined = rules.NewOperator(rules.OpAnd, combined, rules.Clone(n))
	}
	return combined, nil
}
