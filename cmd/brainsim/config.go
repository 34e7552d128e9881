package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the brainsim configuration file
// (~/.config/brainsim/config.yaml). Numeric fields are pointers so we can
// distinguish "not set" from zero values.
type Config struct {
	StorePath string `yaml:"store_path"`

	// Demo defaults
	Epochs *int64   `yaml:"epochs"`
	Seed   *int64   `yaml:"seed"`
	Batch  *int64   `yaml:"batch"`
	LR     *float64 `yaml:"lr"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "brainsim", "config.yaml")
}

// applyDemoConfig applies config file defaults to demo command variables
// when the corresponding CLI flag was not explicitly set.
func applyDemoConfig(c *cli.Command, cfg Config, epochs, seed, batch *int64, lr *float64) {
	if cfg.StorePath != "" && !c.IsSet("store") {
		storePath = cfg.StorePath
	}
	if cfg.Epochs != nil && !c.IsSet("epochs") {
		*epochs = *cfg.Epochs
	}
	if cfg.Seed != nil && !c.IsSet("seed") {
		*seed = *cfg.Seed
	}
	if cfg.Batch != nil && !c.IsSet("batch") {
		*batch = *cfg.Batch
	}
	if cfg.LR != nil && !c.IsSet("lr") {
		*lr = *cfg.LR
	}
	applyLoggingConfig(c, cfg)
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.StorePath != "" && !c.IsSet("store") {
		storePath = cfg.StorePath
	}
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	applyLoggingConfig(c, cfg)
}

func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// LoadConfig reads the config file. Returns a zero Config if the file doesn't exist.
func LoadConfig() Config {
	path := configPath()
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}
