package main

import (
	"time"

	"github.com/shackmatrix/marquee/internal/feed"
)

const (
	defaultBindHost            = "127.0.0.1"
	defaultAPIPort             = 8590
	defaultMuxBufferSize       = feed.DefaultMuxBuffer
	defaultQueryTimeout        = 30 * time.Second
	defaultInsertBatchSize     = 64
	defaultInsertFlushInterval = time.Second
	defaultInsertFlushQueue    = 16
	defaultRetentionDays       = 90 // days, 0 = disabled
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the entrypoint.
type appConfig struct {
	// Scheduler
	EnterDuration       time.Duration `mapstructure:"enter-duration"`
	ExitDuration        time.Duration `mapstructure:"exit-duration"`
	JackpotHold         time.Duration `mapstructure:"jackpot-hold"`
	InsertDwell         time.Duration `mapstructure:"insert-dwell"`
	UrgentWeatherReplay time.Duration `mapstructure:"urgent-weather-replay"`
	JackpotReplay       time.Duration `mapstructure:"jackpot-replay"`

	// Deck
	DeckPath string `mapstructure:"deck-path"`

	// Feeds
	MuxBufferSize    int           `mapstructure:"mux-buffer-size"`
	WeatherEnabled   bool          `mapstructure:"weather-enabled"`
	WeatherPoint     string        `mapstructure:"weather-point"`
	WeatherURL       string        `mapstructure:"weather-url"`
	WeatherUserAgent string        `mapstructure:"weather-user-agent"`
	WeatherInterval  time.Duration `mapstructure:"weather-interval"`
	SpotsEnabled     bool          `mapstructure:"spots-enabled"`
	SpotsURL         string        `mapstructure:"spots-url"`
	SpotsInterval    time.Duration `mapstructure:"spots-interval"`
	ContestEnabled   bool          `mapstructure:"contest-enabled"`

	// Storage
	DBPath              string        `mapstructure:"db-path"`
	QueryTimeout        time.Duration `mapstructure:"query-timeout"`
	InsertBatchSize     int           `mapstructure:"insert-batch-size"`
	InsertFlushInterval time.Duration `mapstructure:"insert-flush-interval"`
	InsertFlushQueue    int           `mapstructure:"insert-flush-queue-size"`
	Retention           int           `mapstructure:"history-retention"`
	JournalEnabled      bool          `mapstructure:"journal-enabled"`
	JournalPath         string        `mapstructure:"journal-path"`

	// HTTP API
	APIEnabled bool   `mapstructure:"api-enabled"`
	APIPort    int    `mapstructure:"api-port"`
	APIAddr    string `mapstructure:"api-addr"`

	// Backups
	BackupEnabled        bool          `mapstructure:"backup-enabled"`
	BackupInterval       time.Duration `mapstructure:"backup-interval"`
	BackupLocalDir       string        `mapstructure:"backup-local-dir"`
	BackupKeepLast       int           `mapstructure:"backup-keep-last"`
	BackupBucketURL      string        `mapstructure:"backup-bucket-url"`
	BackupS3Endpoint     string        `mapstructure:"backup-s3-endpoint"`
	BackupS3Region       string        `mapstructure:"backup-s3-region"`
	BackupS3AccessKey    string        `mapstructure:"backup-s3-access-key"`
	BackupS3SecretKey    string        `mapstructure:"backup-s3-secret-key"`
	BackupS3SessionToken string        `mapstructure:"backup-s3-session-token"`
	BackupS3UseSSL       bool          `mapstructure:"backup-s3-use-ssl"`

	ConfigPath string `mapstructure:"-"` // not from config file
}
