package engine

import (
	"cmp"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/TimurManjosov/gorules/internal/rules"
)

// comparatorHandlers maps a comparator to a predicate over the three-way
// comparison of the record value against the literal.
var comparatorHandlers = map[rules.Comparator]func(c int) bool{
	rules.OpGt:  func(c int) bool { return c > 0 },
	rules.OpLt:  func(c int) bool { return c < 0 },
	rules.OpGte: func(c int) bool { return c >= 0 },
	rules.OpLte: func(c int) bool { return c <= 0 },
	rules.OpEq:  func(c int) bool { return c == 0 },
}

type literalKind int

const (
	literalString literalKind = iota // 'quoted'
	literalNumber                    // 30, 4.5, 1e3
	literalOpaque                    // any other bare word
)

type literal struct {
	kind literalKind
	text string
	num  float64
}

// parseLiteral interprets the lexical form kept in the tree.
func parseLiteral(raw string) literal {
	if len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'' {
		return literal{kind: literalString, text: raw[1 : len(raw)-1]}
	}
	if f, ok := parseNumber(raw); ok {
		return literal{kind: literalNumber, text: raw, num: f}
	}
	return literal{kind: literalOpaque, text: raw}
}

// compareValue compares a record value with a literal. ok is false when the
// two cannot be ordered, which every comparator treats as a non-match.
func compareValue(value any, lit literal) (c int, ok bool) {
	switch lit.kind {
	case literalNumber:
		f, ok := toFloat64(value)
		if !ok {
			return 0, false
		}
		return cmp.Compare(f, lit.num), true
	case literalString, literalOpaque:
		s, ok := toString(value)
		if !ok {
			return 0, false
		}
		return strings.Compare(s, lit.text), true
	default:
		return 0, false
	}
}

func toString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// toFloat64 accepts Go numeric types, json.Number, and numeric strings.
func toFloat64(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		return parseNumber(n.String())
	case string:
		return parseNumber(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// parseNumber accepts finite decimal numbers only.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
