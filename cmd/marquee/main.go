package main

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/shackmatrix/marquee/internal/model"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/marquee/config.yml)")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("Marquee - Display Scheduler Service\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := runServer(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	defaultDBPath := filepath.Join(home, ".local", "share", "marquee", "marquee.duckdb")
	defaultJournalPath := filepath.Join(home, ".local", "share", "marquee", "journal.jsonl")
	defaultDeckPath := filepath.Join(home, ".config", "marquee", "deck.yml")

	v := viper.New()
	v.SetEnvPrefix("MARQUEE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("enter-duration", model.DefaultEnterDuration)
	v.SetDefault("exit-duration", model.DefaultExitDuration)
	v.SetDefault("jackpot-hold", model.DefaultJackpotHold)
	v.SetDefault("insert-dwell", model.DefaultDwell)
	v.SetDefault("urgent-weather-replay", model.DefaultUrgentWeatherReplay)
	v.SetDefault("jackpot-replay", model.DefaultJackpotReplay)
	v.SetDefault("deck-path", defaultDeckPath)
	v.SetDefault("mux-buffer-size", defaultMuxBufferSize)
	v.SetDefault("weather-enabled", false)
	v.SetDefault("spots-enabled", false)
	v.SetDefault("contest-enabled", true)
	v.SetDefault("db-path", defaultDBPath)
	v.SetDefault("query-timeout", defaultQueryTimeout)
	v.SetDefault("insert-batch-size", defaultInsertBatchSize)
	v.SetDefault("insert-flush-interval", defaultInsertFlushInterval)
	v.SetDefault("insert-flush-queue-size", defaultInsertFlushQueue)
	v.SetDefault("history-retention", defaultRetentionDays)
	v.SetDefault("journal-enabled", true)
	v.SetDefault("journal-path", defaultJournalPath)
	v.SetDefault("api-enabled", true)
	v.SetDefault("api-port", defaultAPIPort)
	v.SetDefault("backup-enabled", false)

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
	cfg.ConfigPath = v.ConfigFileUsed()

	if cfg.APIPort <= 0 || cfg.APIPort > 65535 {
		return cfg, fmt.Errorf("invalid api-port: %d", cfg.APIPort)
	}
	if cfg.WeatherEnabled && strings.TrimSpace(cfg.WeatherPoint) == "" {
		return cfg, fmt.Errorf("weather-point is required when the weather feed is enabled")
	}
	if cfg.SpotsEnabled && strings.TrimSpace(cfg.SpotsURL) == "" {
		return cfg, fmt.Errorf("spots-url is required when the spots feed is enabled")
	}

	// Expand ~ in file paths
	for _, p := range []*string{&cfg.DBPath, &cfg.JournalPath, &cfg.DeckPath, &cfg.BackupLocalDir} {
		if strings.HasPrefix(*p, "~/") {
			*p = filepath.Join(home, (*p)[2:])
		}
	}

	if cfg.APIAddr == "" {
		cfg.APIAddr = net.JoinHostPort(defaultBindHost, strconv.Itoa(cfg.APIPort))
	}

	return cfg, nil
}
