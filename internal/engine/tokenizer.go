package engine

import (
	"fmt"
	"unicode"

	"github.com/TimurManjosov/gorules/internal/rules"
)

// TokenKind classifies a token.
type TokenKind int

const (
	TokenAtom TokenKind = iota
	TokenLParen
	TokenRParen
	TokenLogicalOp
)

func (k TokenKind) String() string {
	switch k {
	case TokenAtom:
		return "atom"
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	case TokenLogicalOp:
		return "logical operator"
	default:
		return fmt.Sprintf("TokenKind(%d)", int(k))
	}
}

// Token is one lexical unit of a rule string. Pos is the byte offset of the
// token in the source.
type Token struct {
	Kind  TokenKind
	Value string
	Pos   int
}

// Tokenize splits a rule string on whitespace, emitting every '(' and ')' as
// its own token. Any other run of characters is one atom, so "age>30" stays a
// single token. AND and OR (upper case) become logical operators.
func Tokenize(ruleString string) ([]Token, error) {
	var tokens []Token
	start := -1

	flush := func(end int) {
		if start < 0 {
			return
		}
		value := ruleString[start:end]
		kind := TokenAtom
		if rules.IsLogicalOp(value) {
			kind = TokenLogicalOp
		}
		tokens = append(tokens, Token{Kind: kind, Value: value, Pos: start})
		start = -1
	}

	for i, r := range ruleString {
		switch {
		case unicode.IsSpace(r):
			flush(i)
		case r == '(':
			flush(i)
			tokens = append(tokens, Token{Kind: TokenLParen, Value: "(", Pos: i})
		case r == ')':
			flush(i)
			tokens = append(tokens, Token{Kind: TokenRParen, Value: ")", Pos: i})
		default:
			if start < 0 {
				start = i
			}
		}
	}
	flush(len(ruleString))

	if len(tokens) == 0 {
		return nil, ErrNoTokens
	}
	return tokens, nil
}
