package commands

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/gorules/internal/cli"
)

var (
	importDryRun bool
	importForce  bool
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import rules from a file",
	Long: `Import rules from a YAML or JSON rule file. Every rule string is compiled
locally first; nothing is sent when a rule fails to compile unless --force is
given, in which case failing rules are skipped. Imported rules get new ids.

Examples:
  rulectl import rules.yaml
  rulectl import rules.yaml --dry-run
  rulectl import rules.yaml --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		errOut := cmd.ErrOrStderr()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		file, err := cli.ParseRuleFile(data)
		if err != nil {
			return err
		}

		if verbose {
			fmt.Fprintf(out, "Found %d rule(s) to import\n", len(file.Rules))
		}

		failures := file.Check(offlineEngine())
		failed := make([]int, 0, len(failures))
		for i := range failures {
			failed = append(failed, i)
		}
		sort.Ints(failed)
		for _, i := range failed {
			fmt.Fprintf(errOut, "Rule %d (%q) does not compile: %v\n", i, file.Rules[i].RuleString, failures[i])
		}
		if len(failures) > 0 && !importForce {
			return fmt.Errorf("%d rule(s) failed to compile, use --force to skip them", len(failures))
		}

		// Dry run mode - just validate and show what would be imported
		if importDryRun {
			fmt.Fprintln(out, "Dry run mode - the following rules would be imported:")
			for i, entry := range file.Rules {
				if _, bad := failures[i]; bad {
					continue
				}
				fmt.Fprintf(out, "  - %s\n", entry.RuleString)
			}
			return nil
		}

		c, _, err := newClient()
		if err != nil {
			return err
		}
		ctx := commandContext(cmd)

		successCount := 0
		errorCount := len(failures)
		for i, entry := range file.Rules {
			if _, bad := failures[i]; bad {
				continue
			}
			if verbose {
				fmt.Fprintf(out, "Importing rule: %s\n", entry.RuleString)
			}
			if _, err := c.CreateRule(ctx, entry.RuleString); err != nil {
				errorCount++
				fmt.Fprintf(errOut, "Failed to import rule %d: %v\n", i, err)
				if !importForce {
					return fmt.Errorf("import failed, use --force to continue on errors")
				}
				continue
			}
			successCount++
		}

		if !quiet {
			fmt.Fprintf(out, "Import complete: %d succeeded, %d failed\n", successCount, errorCount)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate without importing")
	importCmd.Flags().BoolVar(&importForce, "force", false, "Continue on errors")
}
