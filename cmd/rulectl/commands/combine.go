package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/gorules/internal/cli"
	"github.com/TimurManjosov/gorules/internal/engine"
	"github.com/TimurManjosov/gorules/internal/rules"
)

var (
	combineIDs     bool
	combineOffline bool
)

var combineCmd = &cobra.Command{
	Use:   "combine <rule>...",
	Short: "AND-combine rules into one tree",
	Long: `Combine rule strings (or, with --ids, stored rules) into a single tree:
((r0 AND r1) AND r2) ...

Examples:
  rulectl combine "age > 30" "department = 'Sales'"
  rulectl combine --ids 7c9e6679-7425-40de-944b-e07fc1f90ae7 9b2f1d3a-5c6e-4f70-8a91-b2c3d4e5f601
  rulectl combine --offline "age > 30" "salary >= 50000" --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outFmt, err := outputFormat()
		if err != nil {
			return err
		}

		var node rules.Node
		switch {
		case combineOffline && combineIDs:
			return fmt.Errorf("--offline cannot be used with --ids")
		case combineOffline:
			eng := offlineEngine()
			nodes := make([]rules.Node, 0, len(args))
			for i, rs := range args {
				n, err := eng.CompileString(rs)
				if err != nil {
					return fmt.Errorf("rule %d: %w", i, err)
				}
				nodes = append(nodes, n)
			}
			node, err = engine.Combine(nodes)
		default:
			c, _, cerr := newClient()
			if cerr != nil {
				return cerr
			}
			if combineIDs {
				node, err = c.CombineRuleIDs(commandContext(cmd), args)
			} else {
				node, err = c.CombineRuleStrings(commandContext(cmd), args)
			}
		}
		if err != nil {
			return fmt.Errorf("failed to combine rules: %w", err)
		}
		return cli.PrintTree(cmd.OutOrStdout(), node, outFmt)
	},
}

func init() {
	rootCmd.AddCommand(combineCmd)
	combineCmd.Flags().BoolVar(&combineIDs, "ids", false, "Arguments are stored rule ids")
	combineCmd.Flags().BoolVar(&combineOffline, "offline", false, "Combine locally without the server")
}
