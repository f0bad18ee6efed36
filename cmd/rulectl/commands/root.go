package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/gorules/internal/cli"
	"github.com/TimurManjosov/gorules/internal/client"
	"github.com/TimurManjosov/gorules/internal/engine"
)

var (
	// Global flags
	baseURL    string
	apiKey     string
	env        string
	format     string
	attributes string
	quiet      bool
	verbose    bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "rulectl",
	Short: "CLI tool for managing eligibility rules",
	Long: `rulectl is a command-line tool for the gorules service.

It creates, reads, modifies and deletes stored rules, combines and evaluates
them remotely, and compiles or evaluates rule strings offline.

Examples:
  rulectl create "age > 30 AND department = 'Sales'"
  rulectl list --format json
  rulectl evaluate <id> --data '{"age": 35, "department": "Sales"}'
  rulectl compile "(age > 30 OR salary >= 50000) AND experience > 2"
  rulectl eval "age > 30" --data @record.json
  rulectl export --output rules.yaml`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Base URL of the rule service API")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for authentication")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "Environment from the config file (default: default_env)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&attributes, "attributes", "", "Comma-separated attribute allow-list for offline commands")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output")
}

// newClient resolves the environment and builds an API client.
func newClient() (*client.Client, string, error) {
	envCfg, effectiveEnv, err := cli.GetEnvConfig(env, baseURL, apiKey)
	if err != nil {
		return nil, "", fmt.Errorf("configuration error: %w", err)
	}
	return client.NewClient(envCfg.BaseURL, envCfg.APIKey), effectiveEnv, nil
}

func outputFormat() (cli.OutputFormat, error) {
	return cli.ParseFormat(format)
}

// offlineEngine builds the engine used by compile, eval and import checks.
func offlineEngine() *engine.Engine {
	var names []string
	for _, a := range strings.Split(attributes, ",") {
		if a = strings.TrimSpace(a); a != "" {
			names = append(names, a)
		}
	}
	return engine.New(engine.WithAttributes(names...))
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
