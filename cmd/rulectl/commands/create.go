package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/gorules/internal/cli"
)

var createCmd = &cobra.Command{
	Use:   "create <rule>",
	Short: "Create a new rule",
	Long: `Compile and store a rule string on the server.

Examples:
  rulectl create "age > 30 AND department = 'Sales'"
  rulectl create "(salary >= 50000 OR experience > 5) AND age < 60" --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outFmt, err := outputFormat()
		if err != nil {
			return err
		}
		c, effectiveEnv, err := newClient()
		if err != nil {
			return err
		}

		rule, err := c.CreateRule(commandContext(cmd), args[0])
		if err != nil {
			return fmt.Errorf("failed to create rule: %w", err)
		}

		if quiet {
			fmt.Fprintln(cmd.OutOrStdout(), rule.ID)
			return nil
		}
		if verbose {
			fmt.Fprintf(cmd.ErrOrStderr(), "Created rule %s in environment '%s'\n", rule.ID, effectiveEnv)
		}
		return cli.PrintRule(cmd.OutOrStdout(), rule, outFmt)
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
}
