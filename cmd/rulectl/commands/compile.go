package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/gorules/internal/cli"
	"github.com/TimurManjosov/gorules/internal/rules"
	"github.com/TimurManjosov/gorules/internal/targeting"
)

var compileJSONLogic bool

var compileCmd = &cobra.Command{
	Use:   "compile <rule>",
	Short: "Compile a rule string offline and print its tree",
	Long: `Compile a rule string locally and print the resulting tree. Nothing is sent
to the server. Use --attributes to apply an attribute allow-list.

Examples:
  rulectl compile "age > 30 OR department = 'Sales' AND salary < 1000"
  rulectl compile "age > 30" --format json
  rulectl compile "age > 30" --jsonlogic
  rulectl compile "height > 2" --attributes age,department,salary,experience`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outFmt, err := outputFormat()
		if err != nil {
			return err
		}

		node, err := offlineEngine().CompileString(args[0])
		if err != nil {
			return err
		}

		if compileJSONLogic {
			doc, err := targeting.ToJSONLogic(node)
			if err != nil {
				return err
			}
			return cli.PrintJSON(cmd.OutOrStdout(), doc)
		}
		if verbose {
			fmt.Fprintf(cmd.ErrOrStderr(), "%d operand(s), attributes: %v\n", rules.CountOperands(node), rules.Attributes(node))
		}
		return cli.PrintTree(cmd.OutOrStdout(), node, outFmt)
	},
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().BoolVar(&compileJSONLogic, "jsonlogic", false, "Print the tree as JSON Logic")
}
