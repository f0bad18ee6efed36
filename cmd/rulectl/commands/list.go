package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/gorules/internal/cli"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all rules",
	Long: `List every stored rule in creation order.

Examples:
  rulectl list
  rulectl list --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		outFmt, err := outputFormat()
		if err != nil {
			return err
		}
		c, effectiveEnv, err := newClient()
		if err != nil {
			return err
		}

		list, err := c.ListRules(commandContext(cmd))
		if err != nil {
			return fmt.Errorf("failed to list rules: %w", err)
		}

		if len(list) == 0 && outFmt == cli.FormatTable {
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "No rules found in environment '%s'\n", effectiveEnv)
			}
			return nil
		}
		return cli.PrintRules(cmd.OutOrStdout(), list, outFmt)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
