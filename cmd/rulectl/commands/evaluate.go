package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/gorules/internal/cli"
)

var evaluateData string

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <id>",
	Short: "Evaluate a stored rule against a data record",
	Long: `Evaluate a stored rule on the server. Data is a JSON object given inline,
or read from a file with @path ("@-" reads stdin).

Examples:
  rulectl evaluate 7c9e6679-7425-40de-944b-e07fc1f90ae7 --data '{"age": 35, "department": "Sales"}'
  rulectl evaluate 7c9e6679-7425-40de-944b-e07fc1f90ae7 --data @record.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outFmt, err := outputFormat()
		if err != nil {
			return err
		}
		data, err := cli.ParseData(evaluateData, cmd.InOrStdin())
		if err != nil {
			return err
		}
		c, _, err := newClient()
		if err != nil {
			return err
		}

		result, err := c.EvaluateRule(commandContext(cmd), args[0], data)
		if err != nil {
			return fmt.Errorf("failed to evaluate rule: %w", err)
		}
		return printResult(cmd, result, outFmt)
	},
}

func printResult(cmd *cobra.Command, result bool, outFmt cli.OutputFormat) error {
	switch outFmt {
	case cli.FormatJSON:
		return cli.PrintJSON(cmd.OutOrStdout(), map[string]bool{"result": result})
	case cli.FormatYAML:
		return cli.PrintYAML(cmd.OutOrStdout(), map[string]bool{"result": result})
	default:
		_, err := fmt.Fprintln(cmd.OutOrStdout(), result)
		return err
	}
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVar(&evaluateData, "data", "", "Data record as JSON, @file or @-")
}
