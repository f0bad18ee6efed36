package engine

import "errors"

// ErrMalformedInput is the root of every compile-time failure. Callers should
// reject the rule string without side effects when errors.Is(err, ErrMalformedInput).
var ErrMalformedInput = errors.New("malformed rule")

// Detail errors; each one satisfies errors.Is(err, ErrMalformedInput).
var (
	ErrNoTokens          = detail("rule contains no tokens")
	ErrUnbalancedParens  = detail("unbalanced parentheses")
	ErrMissingOperand    = detail("missing operand")
	ErrInvalidComparison = detail("invalid comparison")
	ErrInvalidLiteral    = detail("invalid literal")
	ErrUnknownAttribute  = detail("unknown attribute")
	ErrEmptyRuleSet      = detail("no rules to combine")
	ErrInvalidTree       = detail("invalid rule tree")
	ErrTreeTooDeep       = detail("rule nests too deeply")
)

type malformedError struct {
	msg string
}

func detail(msg string) error { return &malformedError{msg: msg} }

func (e *malformedError) Error() string { return ErrMalformedInput.Error() + ": " + e.msg }

func (e *malformedError) Unwrap() error { return ErrMalformedInput }
