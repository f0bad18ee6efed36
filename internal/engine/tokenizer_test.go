package engine

import (
	"errors"
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Token
	}{
		{
			name:  "grouped comparison",
			input: "(age > 30 AND department = 'Sales')",
			want: []Token{
				{Kind: TokenLParen, Value: "(", Pos: 0},
				{Kind: TokenAtom, Value: "age", Pos: 1},
				{Kind: TokenAtom, Value: ">", Pos: 5},
				{Kind: TokenAtom, Value: "30", Pos: 7},
				{Kind: TokenLogicalOp, Value: "AND", Pos: 10},
				{Kind: TokenAtom, Value: "department", Pos: 14},
				{Kind: TokenAtom, Value: "=", Pos: 25},
				{Kind: TokenAtom, Value: "'Sales'", Pos: 27},
				{Kind: TokenRParen, Value: ")", Pos: 34},
			},
		},
		{
			name:  "no whitespace around comparator",
			input: "age>30",
			want:  []Token{{Kind: TokenAtom, Value: "age>30", Pos: 0}},
		},
		{
			name:  "lower case keywords are atoms",
			input: "and or",
			want: []Token{
				{Kind: TokenAtom, Value: "and", Pos: 0},
				{Kind: TokenAtom, Value: "or", Pos: 4},
			},
		},
		{
			name:  "tabs and newlines",
			input: "a\t>\n1",
			want: []Token{
				{Kind: TokenAtom, Value: "a", Pos: 0},
				{Kind: TokenAtom, Value: ">", Pos: 2},
				{Kind: TokenAtom, Value: "1", Pos: 4},
			},
		},
		{
			name:  "nested parens",
			input: "((x",
			want: []Token{
				{Kind: TokenLParen, Value: "(", Pos: 0},
				{Kind: TokenLParen, Value: "(", Pos: 1},
				{Kind: TokenAtom, Value: "x", Pos: 2},
			},
		},
		{
			name:  "quoted literal with space splits",
			input: "city = 'New York'",
			want: []Token{
				{Kind: TokenAtom, Value: "city", Pos: 0},
				{Kind: TokenAtom, Value: "=", Pos: 5},
				{Kind: TokenAtom, Value: "'New", Pos: 7},
				{Kind: TokenAtom, Value: "York'", Pos: 12},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("Tokenize(%q) error = %v", tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Tokenize(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTokenize_Empty(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\n"} {
		tokens, err := Tokenize(input)
		if !errors.Is(err, ErrNoTokens) || !errors.Is(err, ErrMalformedInput) {
			t.Fatalf("Tokenize(%q) error = %v, want ErrNoTokens", input, err)
		}
		if tokens != nil {
			t.Fatalf("Tokenize(%q) returned tokens %v", input, tokens)
		}
	}
}

func TestTokenKindString(t *testing.T) {
	if TokenLogicalOp.String() != "logical operator" {
		t.Fatalf("unexpected name %q", TokenLogicalOp.String())
	}
	if TokenKind(42).String() != "TokenKind(42)" {
		t.Fatalf("unexpected name %q", TokenKind(42).String())
	}
}
