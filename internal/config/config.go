// Package config loads oprouter settings from a YAML file, the environment
// and built-in defaults, in that order of increasing precedence:
//
//  1. Defaults (lowest priority)
//  2. Config file (oprouter.yaml)
//  3. Environment variables, prefixed OPROUTER_ (highest priority)
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/roach88/oprouter/internal/policy"
	"github.com/roach88/oprouter/internal/router"
)

// Config is the main configuration struct combining all sub-configs.
type Config struct {
	Router  RouterConfig  `mapstructure:"router"`
	Logging LoggingConfig `mapstructure:"logging"`
	Store   StoreConfig   `mapstructure:"store"`
}

// RouterConfig holds resolver settings.
type RouterConfig struct {
	// Enable global sorting of pending entities and operators
	Sorting bool `mapstructure:"sorting"`

	// Criterion restored at every cycle exit
	DefaultRule string `mapstructure:"default_rule" validate:"required,oneof=FIFO WT Priority EDD EOD NumStages RPC LPT SPT MS WINQ"`

	// How a preemptive operator is picked from a pool: first-found, least-worked
	Preemption string `mapstructure:"preemption" validate:"required,oneof=first-found least-worked"`
}

// StoreConfig holds layout library settings.
type StoreConfig struct {
	// SQLite database file
	Path string `mapstructure:"path" validate:"required"`
}

// defaults are registered with viper so environment variables bind to
// every key even when no config file exists.
var defaults = map[string]any{
	"router.sorting":      false,
	"router.default_rule": string(policy.Default),
	"router.preemption":   string(router.PreemptFirstFound),
	"logging.level":       "info",
	"logging.format":      "text",
	"store.path":          "oprouter.db",
}

// Load reads configuration. An empty path searches for oprouter.yaml in
// the working directory and ./configs; a missing file is not an error.
// An explicit path must exist.
func Load(path string) (*Config, error) {
	// Load .env file if it exists (doesn't error if missing)
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("oprouter")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix("OPROUTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Router: RouterConfig{
			DefaultRule: string(policy.Default),
			Preemption:  string(router.PreemptFirstFound),
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Store:   StoreConfig{Path: "oprouter.db"},
	}
}

// Options converts the router section into router options.
func (c RouterConfig) Options() ([]router.Option, error) {
	rule, err := policy.Parse(c.DefaultRule)
	if err != nil {
		return nil, err
	}
	preemption, err := router.ParsePreemptionPolicy(c.Preemption)
	if err != nil {
		return nil, err
	}
	return []router.Option{
		router.WithSorting(c.Sorting),
		router.WithDefaultRule(rule),
		router.WithPreemptionPolicy(preemption),
	}, nil
}
