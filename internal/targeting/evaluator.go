// Package targeting renders compiled rules as JSON Logic (jsonlogic.com) and
// runs the rendering through a JSON Logic interpreter to cross-check the rule
// engine.
package targeting

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/diegoholiveira/jsonlogic/v3"

	"github.com/TimurManjosov/gorules/internal/engine"
	"github.com/TimurManjosov/gorules/internal/rules"
)

// ErrInvalidDocument is returned when the interpreter rejects a document.
var ErrInvalidDocument = errors.New("invalid JSON Logic document")

// Comparison holds the verdicts of the rule engine and of the JSON Logic
// interpreter for one rule and record.
type Comparison struct {
	Engine    bool `json:"engine"`
	JSONLogic bool `json:"jsonLogic"`
}

// Agree reports whether both evaluators reached the same verdict.
func (c Comparison) Agree() bool { return c.Engine == c.JSONLogic }

// Compare evaluates node against data with eng and with its JSON Logic
// rendering. A nil eng means the default engine.
func Compare(eng *engine.Engine, node rules.Node, data map[string]any) (Comparison, error) {
	if eng == nil {
		eng = engine.New()
	}
	viaLogic, err := EvaluateNode(node, data)
	if err != nil {
		return Comparison{}, err
	}
	return Comparison{Engine: eng.Evaluate(node, data), JSONLogic: viaLogic}, nil
}

// EvaluateNode renders node as JSON Logic and applies it to data.
func EvaluateNode(node rules.Node, data map[string]any) (bool, error) {
	doc, err := ToJSONLogic(node)
	if err != nil {
		return false, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("encode document: %w", err)
	}
	return apply(raw, data)
}

func apply(doc []byte, data map[string]any) (bool, error) {
	if data == nil {
		data = map[string]any{}
	}
	record, err := json.Marshal(data)
	if err != nil {
		return false, fmt.Errorf("encode record: %w", err)
	}

	var out bytes.Buffer
	if err := jsonlogic.Apply(bytes.NewReader(doc), bytes.NewReader(record), &out); err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	var result any
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		return false, fmt.Errorf("decode result: %w", err)
	}
	return truthy(result), nil
}

// truthy applies JSON Logic truthiness: false, null, 0, "" and [] are false.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	default:
		return true
	}
}
