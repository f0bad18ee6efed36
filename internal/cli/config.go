package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Environment variables read by GetEnvConfig and GetConfigPath.
const (
	EnvBaseURL    = "RULECTL_BASE_URL"
	EnvAPIKey     = "RULECTL_API_KEY"
	EnvConfigPath = "RULECTL_CONFIG"
)

// Config represents the CLI configuration
type Config struct {
	DefaultEnv   string               `yaml:"default_env"`
	Environments map[string]EnvConfig `yaml:"environments"`
}

// EnvConfig represents configuration for a specific environment
type EnvConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// GetConfigPath returns the path to the config file: $RULECTL_CONFIG when
// set, otherwise ~/.rulectl/config.yaml.
func GetConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".rulectl", "config.yaml"), nil
}

// LoadConfig loads the configuration from file
func LoadConfig() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Return empty config if file doesn't exist
			return &Config{
				DefaultEnv:   "dev",
				Environments: make(map[string]EnvConfig),
			}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Environments == nil {
		cfg.Environments = make(map[string]EnvConfig)
	}

	return &cfg, nil
}

// SaveConfig saves the configuration to file
func SaveConfig(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GetEnvConfig resolves the API endpoint for envName.
// Priority: command flags > environment variables > config file.
// Returns the environment config and the effective environment name.
// The API key may be empty; the server rejects unauthenticated writes.
func GetEnvConfig(envName, baseURLFlag, apiKeyFlag string) (*EnvConfig, string, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, "", err
	}

	if envName == "" {
		envName = cfg.DefaultEnv
	}

	envCfg, ok := cfg.Environments[envName]
	if !ok && baseURLFlag == "" && os.Getenv(EnvBaseURL) == "" {
		return nil, "", fmt.Errorf("environment '%s' not found in config; run 'rulectl config init' or pass --base-url", envName)
	}

	if v := os.Getenv(EnvBaseURL); v != "" {
		envCfg.BaseURL = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		envCfg.APIKey = v
	}
	if baseURLFlag != "" {
		envCfg.BaseURL = baseURLFlag
	}
	if apiKeyFlag != "" {
		envCfg.APIKey = apiKeyFlag
	}

	if envCfg.BaseURL == "" {
		return nil, "", fmt.Errorf("base_url must be configured for environment '%s'", envName)
	}

	return &envCfg, envName, nil
}

// InitConfig creates a default config file
func InitConfig() error {
	cfg := &Config{
		DefaultEnv: "dev",
		Environments: map[string]EnvConfig{
			"dev": {
				BaseURL: "http://localhost:8080",
				APIKey:  "admin-123",
			},
			"prod": {
				BaseURL: "https://rules.example.com",
				APIKey:  "",
			},
		},
	}

	return SaveConfig(cfg)
}

// MaskKey hides all but the first four characters of an API key.
func MaskKey(key string) string {
	if len(key) > 4 {
		return key[:4] + "***"
	}
	return "***"
}
