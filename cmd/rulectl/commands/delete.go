package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	deleteForce bool
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a rule",
	Long: `Delete a stored rule.

Examples:
  rulectl delete 7c9e6679-7425-40de-944b-e07fc1f90ae7
  rulectl delete 7c9e6679-7425-40de-944b-e07fc1f90ae7 --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		c, effectiveEnv, err := newClient()
		if err != nil {
			return err
		}

		// Confirm deletion unless --force
		if !deleteForce && !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "Are you sure you want to delete rule '%s' from environment '%s'? (y/N): ", id, effectiveEnv)
			reader := bufio.NewReader(cmd.InOrStdin())
			response, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read confirmation: %w", err)
			}
			response = strings.ToLower(strings.TrimSpace(response))
			if response != "y" && response != "yes" {
				fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled")
				return nil
			}
		}

		if err := c.DeleteRule(commandContext(cmd), id); err != nil {
			return fmt.Errorf("failed to delete rule: %w", err)
		}

		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully deleted rule '%s' from environment '%s'\n", id, effectiveEnv)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().BoolVar(&deleteForce, "force", false, "Skip confirmation prompt")
}
