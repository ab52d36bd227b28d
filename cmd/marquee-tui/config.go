package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultAPIBaseURL     = "http://127.0.0.1:8590"
	defaultUpdateInterval = time.Second
	defaultHistoryLimit   = 200
)

// cliConfig holds only TUI-relevant configuration.
type cliConfig struct {
	APIBaseURL     string        `mapstructure:"api-base-url"`
	UpdateInterval time.Duration `mapstructure:"update-interval"`
	HistoryLimit   int           `mapstructure:"history-limit"`
	RequestTimeout time.Duration `mapstructure:"request-timeout"`
}

func loadCLIConfig(configPath string) (cliConfig, error) {
	var cfg cliConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("MARQUEE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("api-base-url", defaultAPIBaseURL)
	v.SetDefault("update-interval", defaultUpdateInterval)
	v.SetDefault("history-limit", defaultHistoryLimit)
	v.SetDefault("request-timeout", 5*time.Second)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "marquee", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}

	if cfg.HistoryLimit <= 0 || cfg.HistoryLimit > 1000 {
		return cfg, fmt.Errorf("history-limit must be 1-1000, got %d", cfg.HistoryLimit)
	}

	return cfg, nil
}
