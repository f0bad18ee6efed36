package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/gorules/internal/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Manage the rulectl configuration file.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	Long: `Create a default configuration file at ~/.rulectl/config.yaml
(or at $RULECTL_CONFIG when set).

Example:
  rulectl config init`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.InitConfig(); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		configPath, _ := cli.GetConfigPath()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration file created at: %s\n", configPath)
		fmt.Fprintln(out, "\nPlease edit the file to set your API keys and base URLs.")
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:     "show",
	Aliases: []string{"list"},
	Short:   "Show the configuration",
	Long: `Display the current configuration with API keys masked.

Example:
  rulectl config show`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Default Environment: %s\n\n", cfg.DefaultEnv)
		fmt.Fprintln(out, "Environments:")
		names := make([]string, 0, len(cfg.Environments))
		for name := range cfg.Environments {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			envCfg := cfg.Environments[name]
			fmt.Fprintf(out, "  %s:\n", name)
			fmt.Fprintf(out, "    base_url: %s\n", envCfg.BaseURL)
			fmt.Fprintf(out, "    api_key: %s\n", cli.MaskKey(envCfg.APIKey))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <env.key> <value>",
	Short: "Set a configuration value",
	Long: `Set a specific configuration value. Keys are base_url and api_key;
"default_env" (without an environment) selects the default environment.

Examples:
  rulectl config set dev.base_url http://localhost:8080
  rulectl config set prod.api_key my-secret-key
  rulectl config set default_env prod`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		value := args[1]

		if args[0] == "default_env" {
			cfg.DefaultEnv = value
		} else {
			envName, key, ok := strings.Cut(args[0], ".")
			if !ok || envName == "" {
				return fmt.Errorf("invalid key format, expected 'env.key' (e.g., 'dev.base_url')")
			}

			envCfg := cfg.Environments[envName]
			switch key {
			case "base_url":
				envCfg.BaseURL = value
			case "api_key":
				envCfg.APIKey = value
			default:
				return fmt.Errorf("unknown key '%s', valid keys: base_url, api_key", key)
			}
			cfg.Environments[envName] = envCfg
		}

		if err := cli.SaveConfig(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully set %s\n", args[0])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
