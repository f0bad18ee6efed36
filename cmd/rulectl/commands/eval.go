package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/gorules/internal/cli"
	"github.com/TimurManjosov/gorules/internal/targeting"
)

var (
	evalData      string
	evalJSONLogic bool
)

var evalCmd = &cobra.Command{
	Use:   "eval <rule>",
	Short: "Compile and evaluate a rule string offline",
	Long: `Compile a rule string locally and evaluate it against a data record.
Missing attributes and values that cannot be compared evaluate to false.

With --jsonlogic the rule is also rendered as JSON Logic and run through a
JSON Logic interpreter; both verdicts are printed and a disagreement is
reported on stderr.

Examples:
  rulectl eval "age > 30 AND department = 'Sales'" --data '{"age": 35, "department": "Sales"}'
  cat record.json | rulectl eval "salary >= 50000" --data @-
  rulectl eval "age = '40'" --data '{"age": 40}' --jsonlogic`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outFmt, err := outputFormat()
		if err != nil {
			return err
		}
		data, err := cli.ParseData(evalData, cmd.InOrStdin())
		if err != nil {
			return err
		}

		eng := offlineEngine()
		node, err := eng.CompileString(args[0])
		if err != nil {
			return err
		}
		if !evalJSONLogic {
			return printResult(cmd, eng.Evaluate(node, data), outFmt)
		}

		cmp, err := targeting.Compare(eng, node, data)
		if err != nil {
			return fmt.Errorf("json logic cross-check: %w", err)
		}
		if err := printComparison(cmd, cmp, outFmt); err != nil {
			return err
		}
		if !cmp.Agree() {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: JSON Logic evaluates to %v, rule engine to %v\n", cmp.JSONLogic, cmp.Engine)
		}
		return nil
	},
}

func printComparison(cmd *cobra.Command, cmp targeting.Comparison, outFmt cli.OutputFormat) error {
	doc := map[string]bool{"result": cmp.Engine, "jsonLogic": cmp.JSONLogic, "agree": cmp.Agree()}
	switch outFmt {
	case cli.FormatJSON:
		return cli.PrintJSON(cmd.OutOrStdout(), doc)
	case cli.FormatYAML:
		return cli.PrintYAML(cmd.OutOrStdout(), doc)
	default:
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "engine: %v\njsonlogic: %v\n", cmp.Engine, cmp.JSONLogic)
		return err
	}
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().StringVar(&evalData, "data", "", "Data record as JSON, @file or @-")
	evalCmd.Flags().BoolVar(&evalJSONLogic, "jsonlogic", false, "Cross-check the verdict with a JSON Logic interpreter")
}
