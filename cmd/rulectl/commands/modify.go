package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/gorules/internal/cli"
)

var modifyCmd = &cobra.Command{
	Use:   "modify <id> <rule>",
	Short: "Replace the rule string of a stored rule",
	Long: `Compile a new rule string and replace a stored rule with it. The stored
rule is left unchanged when the new string does not compile.

Example:
  rulectl modify 7c9e6679-7425-40de-944b-e07fc1f90ae7 "age > 40"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		outFmt, err := outputFormat()
		if err != nil {
			return err
		}
		c, _, err := newClient()
		if err != nil {
			return err
		}

		rule, err := c.ModifyRule(commandContext(cmd), args[0], args[1])
		if err != nil {
			return fmt.Errorf("failed to modify rule: %w", err)
		}
		if quiet {
			return nil
		}
		return cli.PrintRule(cmd.OutOrStdout(), rule, outFmt)
	},
}

func init() {
	rootCmd.AddCommand(modifyCmd)
}
