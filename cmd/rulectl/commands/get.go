package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/gorules/internal/cli"
)

var getJSONLogic bool

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Get a rule by id",
	Long: `Fetch a stored rule. With --jsonlogic the rule is printed as a JSON Logic
document instead.

Examples:
  rulectl get 7c9e6679-7425-40de-944b-e07fc1f90ae7
  rulectl get 7c9e6679-7425-40de-944b-e07fc1f90ae7 --format yaml
  rulectl get 7c9e6679-7425-40de-944b-e07fc1f90ae7 --jsonlogic`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outFmt, err := outputFormat()
		if err != nil {
			return err
		}
		c, _, err := newClient()
		if err != nil {
			return err
		}
		ctx := commandContext(cmd)

		if getJSONLogic {
			doc, err := c.JSONLogic(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get rule: %w", err)
			}
			if outFmt == cli.FormatYAML {
				return cli.PrintYAML(cmd.OutOrStdout(), doc)
			}
			return cli.PrintJSON(cmd.OutOrStdout(), doc)
		}

		rule, err := c.GetRule(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get rule: %w", err)
		}
		return cli.PrintRule(cmd.OutOrStdout(), rule, outFmt)
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().BoolVar(&getJSONLogic, "jsonlogic", false, "Print the rule as JSON Logic")
}
