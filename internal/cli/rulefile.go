package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/TimurManjosov/gorules/internal/engine"
	"github.com/TimurManjosov/gorules/internal/store"
)

// RuleFile is the export/import document.
type RuleFile struct {
	Rules []RuleEntry `yaml:"rules" json:"rules"`
}

// RuleEntry is one rule in a RuleFile. IDs are informational; imported rules
// get fresh ids from the server.
type RuleEntry struct {
	ID         string `yaml:"id,omitempty" json:"id,omitempty"`
	RuleString string `yaml:"rule_string" json:"rule_string"`
}

// NewRuleFile builds an export document from stored rules.
func NewRuleFile(list []store.Rule) RuleFile {
	f := RuleFile{Rules: make([]RuleEntry, 0, len(list))}
	for _, r := range list {
		f.Rules = append(f.Rules, RuleEntry{ID: r.ID, RuleString: r.RuleString})
	}
	return f
}

// ParseRuleFile reads a YAML (or JSON, which is valid YAML) rule file.
func ParseRuleFile(data []byte) (RuleFile, error) {
	var f RuleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return RuleFile{}, fmt.Errorf("failed to parse rule file: %w", err)
	}
	if len(f.Rules) == 0 {
		return RuleFile{}, fmt.Errorf("no rules found in file")
	}
	return f, nil
}

// Check compiles every entry with eng and returns one error per failing entry,
// keyed by its position in the file.
func (f RuleFile) Check(eng *engine.Engine) map[int]error {
	failures := make(map[int]error)
	for i, entry := range f.Rules {
		if _, err := eng.CompileString(entry.RuleString); err != nil {
			failures[i] = err
		}
	}
	return failures
}

// WriteRuleFile encodes f as "json" or "yaml".
func WriteRuleFile(w io.Writer, f RuleFile, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return PrintJSON(w, f)
	case FormatYAML, FormatTable:
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		encoder.SetIndent(2)
		return encoder.Encode(f)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

// ParseData decodes a data record given inline as JSON or, with a leading
// '@', read from a file ("@-" reads stdin). Numbers keep their exact text.
func ParseData(arg string, stdin io.Reader) (map[string]any, error) {
	if strings.TrimSpace(arg) == "" {
		return map[string]any{}, nil
	}

	raw := []byte(arg)
	if name, ok := strings.CutPrefix(arg, "@"); ok {
		var err error
		if name == "-" {
			raw, err = io.ReadAll(stdin)
		} else {
			raw, err = os.ReadFile(name)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read data: %w", err)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("data must be a JSON object: %w", err)
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}
