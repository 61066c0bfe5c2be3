// Package config provides configuration management for the forge-provision CLI.
//
// It implements the disciplined Viper pattern where Viper stays contained
// in this package and the rest of the codebase receives explicit Config structs.
// Configuration sources are resolved in this order: flags > env > config file > defaults.
//
// Entity parameters (GROUP_NAME, USER_EMAIL, ...) are not configuration and
// are read by package request, unprefixed.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every configuration key read from the environment.
const EnvPrefix = "FORGE_PROVISION"

var envKeyReplacer = strings.NewReplacer("-", "_")

// Config is the explicit configuration struct
// This is what the rest of the codebase sees
type Config struct {
	StoreDSN      string
	RepoRoot      string
	GitBinary     string
	AdminUsername string
	OTelEndpoint  string
	DefaultOrg    OrgConfig
	Log           LogConfig
}

// OrgConfig names the organization created when none exists yet
type OrgConfig struct {
	Name string
	Path string
}

// LogConfig controls the diagnostic logger on stderr
type LogConfig struct {
	Level  string
	Format string
}

// Init initializes viper with defaults and config file paths
func Init() error {
	// Set config file name and type
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Add config file search paths
	viper.AddConfigPath("$HOME/.forge-provision")
	viper.AddConfigPath(".")

	setDefaults()

	// Bind environment variables with prefix; store-dsn reads FORGE_PROVISION_STORE_DSN
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("store-dsn", "./provision.db")
	viper.SetDefault("repo-root", "./repositories")
	viper.SetDefault("git-binary", "git")
	viper.SetDefault("admin-username", "root")
	viper.SetDefault("otel-endpoint", "")
	viper.SetDefault("default-org-name", "Default Organization")
	viper.SetDefault("default-org-path", "default-org")
	viper.SetDefault("log-level", "warn")
	viper.SetDefault("log-format", "json")
}

// Load reads from all sources and returns explicit Config
func Load() (*Config, error) {
	cfg := &Config{
		StoreDSN:      viper.GetString("store-dsn"),
		RepoRoot:      viper.GetString("repo-root"),
		GitBinary:     viper.GetString("git-binary"),
		AdminUsername: viper.GetString("admin-username"),
		OTelEndpoint:  viper.GetString("otel-endpoint"),
		DefaultOrg: OrgConfig{
			Name: viper.GetString("default-org-name"),
			Path: viper.GetString("default-org-path"),
		},
		Log: LogConfig{
			Level:  viper.GetString("log-level"),
			Format: viper.GetString("log-format"),
		},
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

var logLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true, "disabled": true,
}

// Validate ensures config is sane
func (c *Config) Validate() error {
	if c.StoreDSN == "" {
		return fmt.Errorf("store-dsn must not be empty")
	}

	if c.AdminUsername == "" {
		return fmt.Errorf("admin-username must not be empty")
	}

	if c.DefaultOrg.Name == "" || c.DefaultOrg.Path == "" {
		return fmt.Errorf("default-org-name and default-org-path must not be empty")
	}

	if c.Log.Level != "" && !logLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log-level: %s", c.Log.Level)
	}

	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("invalid log-format: %s (must be json or console)", c.Log.Format)
	}

	if c.RepoRoot != "" && c.GitBinary == "" {
		return fmt.Errorf("git-binary must be set when repo-root is set")
	}

	return nil
}

// Save writes current config to file
func Save(cfg *Config) error {
	viper.Set("store-dsn", cfg.StoreDSN)
	viper.Set("repo-root", cfg.RepoRoot)
	viper.Set("git-binary", cfg.GitBinary)
	viper.Set("admin-username", cfg.AdminUsername)
	viper.Set("otel-endpoint", cfg.OTelEndpoint)
	viper.Set("default-org-name", cfg.DefaultOrg.Name)
	viper.Set("default-org-path", cfg.DefaultOrg.Path)
	viper.Set("log-level", cfg.Log.Level)
	viper.Set("log-format", cfg.Log.Format)

	return viper.WriteConfig()
}

// Display shows current config (for forge-provision config)
func Display() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}

	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configFile = "(not found)"
	}

	otel := cfg.OTelEndpoint
	if otel == "" {
		otel = "(disabled)"
	}

	return fmt.Sprintf(`Configuration:
  store-dsn:          %s
  repo-root:          %s
  git-binary:         %s
  admin-username:     %s
  otel-endpoint:      %s

Default organization:
  Name:               %s
  Path:               %s

Logging:
  Level:              %s
  Format:             %s

Sources:
  Config file:        %s
  Environment:        %s_*
  Flags:              (global)
`,
		cfg.StoreDSN,
		cfg.RepoRoot,
		cfg.GitBinary,
		cfg.AdminUsername,
		otel,
		cfg.DefaultOrg.Name,
		cfg.DefaultOrg.Path,
		cfg.Log.Level,
		cfg.Log.Format,
		configFile,
		EnvPrefix,
	), nil
}
