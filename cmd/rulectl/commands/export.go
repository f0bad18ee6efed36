package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/gorules/internal/cli"
)

var (
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export rules to a file",
	Long: `Export all rules to a YAML or JSON rule file.

Examples:
  rulectl export --output rules.yaml
  rulectl export --output rules.json --format json
  rulectl export > backup.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		outFmt, err := outputFormat()
		if err != nil {
			return err
		}
		c, _, err := newClient()
		if err != nil {
			return err
		}

		list, err := c.ListRules(commandContext(cmd))
		if err != nil {
			return fmt.Errorf("failed to list rules: %w", err)
		}

		var output io.Writer = cmd.OutOrStdout()
		if exportOutput != "" && exportOutput != "-" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()
			output = f
		}

		// table output makes no sense for a file; it falls back to YAML
		if err := cli.WriteRuleFile(output, cli.NewRuleFile(list), outFmt); err != nil {
			return fmt.Errorf("failed to encode rules: %w", err)
		}

		if exportOutput != "" && exportOutput != "-" && !quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "Successfully exported %d rule(s) to %s\n", len(list), exportOutput)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")
}
