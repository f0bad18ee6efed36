package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/TimurManjosov/gorules/internal/rules"
	"github.com/TimurManjosov/gorules/internal/store"
)

// OutputFormat specifies the output format for CLI commands
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (want table, json or yaml)", s)
	}
}

// PrintRules outputs rules in the specified format
func PrintRules(w io.Writer, list []store.Rule, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return PrintJSON(w, map[string][]store.Rule{"rules": list})
	case FormatYAML:
		return PrintYAML(w, map[string][]store.Rule{"rules": list})
	case FormatTable:
		return printRuleTable(w, list)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintRule outputs a single rule in the specified format
func PrintRule(w io.Writer, rule *store.Rule, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return PrintJSON(w, rule)
	case FormatYAML:
		return PrintYAML(w, rule)
	case FormatTable:
		return printRuleTable(w, []store.Rule{*rule})
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintTree outputs a rule tree. The table format prints the canonical rule
// string followed by an indented outline.
func PrintTree(w io.Writer, node rules.Node, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return PrintJSON(w, node)
	case FormatYAML:
		return PrintYAML(w, node)
	case FormatTable:
		if _, err := fmt.Fprintln(w, rules.String(node)); err != nil {
			return err
		}
		return writeOutline(w, node, 0)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeOutline(w io.Writer, node rules.Node, depth int) error {
	indent := fmt.Sprintf("%*s", depth*2, "")
	switch n := node.(type) {
	case *rules.Operator:
		if _, err := fmt.Fprintf(w, "%s%s\n", indent, n.Symbol); err != nil {
			return err
		}
		if err := writeOutline(w, n.Left, depth+1); err != nil {
			return err
		}
		return writeOutline(w, n.Right, depth+1)
	case *rules.Operand:
		_, err := fmt.Fprintf(w, "%s%s %s %s\n", indent, n.Attribute, n.Comparator, n.Literal)
		return err
	default:
		_, err := fmt.Fprintf(w, "%s<invalid>\n", indent)
		return err
	}
}

func PrintJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// PrintYAML writes data as YAML. Values are first passed through their JSON
// encoding so rule trees keep the same field names in both formats.
func PrintYAML(w io.Writer, data any) error {
	plain, err := toPlain(data)
	if err != nil {
		return err
	}
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(plain)
}

func toPlain(data any) (any, error) {
	blob, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var plain any
	if err := json.Unmarshal(blob, &plain); err != nil {
		return nil, err
	}
	return plain, nil
}

func printRuleTable(w io.Writer, list []store.Rule) error {
	table := tablewriter.NewWriter(w)

	table.Header("ID", "Rule", "Operands", "Updated At")

	for _, rule := range list {
		ruleString := rule.RuleString
		if len(ruleString) > 60 {
			ruleString = ruleString[:57] + "..."
		}

		table.Append(
			rule.ID,
			ruleString,
			fmt.Sprintf("%d", rules.CountOperands(rule.AST)),
			rule.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}

	return table.Render()
}
