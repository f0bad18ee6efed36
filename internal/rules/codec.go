package rules

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Node type tags used in the JSON document form.
const (
	typeOperator = "operator"
	typeOperand  = "operand"
)

// ErrInvalidDocument is returned when a JSON document does not describe a rule tree.
var ErrInvalidDocument = errors.New("invalid rule document")

type operatorDoc struct {
	Type  string          `json:"type"`
	Value LogicalOp       `json:"value"`
	Left  json.RawMessage `json:"left"`
	Right json.RawMessage `json:"right"`
}

type operandValueDoc struct {
	Attribute string     `json:"attribute"`
	Operator  Comparator `json:"operator"`
	Value     string     `json:"value"`
}

type operandDoc struct {
	Type  string          `json:"type"`
	Value operandValueDoc `json:"value"`
}

// MarshalJSON encodes the operator as {"type":"operator","value":"AND","left":...,"right":...}.
func (o *Operator) MarshalJSON() ([]byte, error) {
	left, err := MarshalNode(o.Left)
	if err != nil {
		return nil, err
	}
	right, err := MarshalNode(o.Right)
	if err != nil {
		return nil, err
	}
	return json.Marshal(operatorDoc{Type: typeOperator, Value: o.Symbol, Left: left, Right: right})
}

// MarshalJSON encodes the operand as {"type":"operand","value":{"attribute","operator","value"}}.
func (o *Operand) MarshalJSON() ([]byte, error) {
	return json.Marshal(operandDoc{
		Type: typeOperand,
		Value: operandValueDoc{
			Attribute: o.Attribute,
			Operator:  o.Comparator,
			Value:     o.Literal,
		},
	})
}

// MarshalNode encodes any node; a nil node encodes as JSON null.
func MarshalNode(node Node) ([]byte, error) {
	if isNil(node) {
		return []byte("null"), nil
	}
	return json.Marshal(node)
}

// UnmarshalNode decodes a rule tree and validates it.
func UnmarshalNode(data []byte) (Node, error) {
	node, err := decodeNode(data, 1)
	if err != nil {
		return nil, err
	}
	if err := Validate(node); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return node, nil
}

func decodeNode(data []byte, depth int) (Node, error) {
	if depth > MaxDepth {
		return nil, fmt.Errorf("%w: nesting exceeds %d levels", ErrInvalidDocument, MaxDepth)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("%w: missing node", ErrInvalidDocument)
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(trimmed, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	switch head.Type {
	case typeOperator:
		var doc operatorDoc
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		left, err := decodeNode(doc.Left, depth+1)
		if err != nil {
			return nil, err
		}
		right, err := decodeNode(doc.Right, depth+1)
		if err != nil {
			return nil, err
		}
		return NewOperator(doc.Value, left, right), nil

	case typeOperand:
		var doc struct {
			Value struct {
				Attribute string          `json:"attribute"`
				Operator  Comparator      `json:"operator"`
				Value     json.RawMessage `json:"value"`
			} `json:"value"`
		}
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		literal, err := decodeLiteral(doc.Value.Value)
		if err != nil {
			return nil, err
		}
		return NewOperand(doc.Value.Attribute, doc.Value.Operator, literal), nil

	default:
		return nil, fmt.Errorf("%w: unknown node type %q", ErrInvalidDocument, head.Type)
	}
}

// decodeLiteral accepts the lexical string form and, for documents written by
// other tools, a bare JSON number whose text becomes the literal.
func decodeLiteral(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", fmt.Errorf("%w: operand value is missing", ErrInvalidDocument)
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		return s, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	n, ok := v.(json.Number)
	if !ok {
		return "", fmt.Errorf("%w: operand value must be a string or number", ErrInvalidDocument)
	}
	return n.String(), nil
}
