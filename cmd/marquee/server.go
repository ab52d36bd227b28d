package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/shackmatrix/marquee/internal/backup"
	"github.com/shackmatrix/marquee/internal/feed"
	"github.com/shackmatrix/marquee/internal/history"
	"github.com/shackmatrix/marquee/internal/httpserver"
	"github.com/shackmatrix/marquee/internal/journal"
	"github.com/shackmatrix/marquee/internal/model"
	"github.com/shackmatrix/marquee/internal/sched"
)

// runServer starts the headless display scheduler with the HTTP API.
func runServer(cfg appConfig) error {
	cleanupLogger := configureRuntimeLogger()
	defer cleanupLogger()

	deck, err := loadDeck(cfg.DeckPath)
	if err != nil {
		return fmt.Errorf("failed to load deck: %w", err)
	}

	if dir := filepath.Dir(cfg.DBPath); cfg.DBPath != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	store, err := history.NewStore(cfg.DBPath, cfg.QueryTimeout)
	if err != nil {
		return fmt.Errorf("failed to initialize history store: %w", err)
	}
	defer store.Close()

	// Open the dispatch journal for crash-safe cooldown replay.
	var dispatchJournal *journal.Journal
	if cfg.JournalEnabled {
		dispatchJournal, err = journal.Open(cfg.JournalPath)
		if err != nil {
			return fmt.Errorf("failed to open dispatch journal: %w", err)
		}
		if err := replayUncommittedJournal(dispatchJournal, store, cfg.InsertBatchSize); err != nil {
			_ = dispatchJournal.Close()
			return fmt.Errorf("failed to replay dispatch journal: %w", err)
		}
	}

	// Create insert buffer for batched history writes. It doubles as the
	// engine's dispatch sink.
	insertBuffer := history.NewInsertBuffer(store, history.InsertBufferConfig{
		BatchSize:      cfg.InsertBatchSize,
		FlushInterval:  cfg.InsertFlushInterval,
		FlushQueueSize: cfg.InsertFlushQueue,
		Journal:        dispatchJournal,
	})
	defer insertBuffer.Stop()

	// Start retention cleaner for automatic history expiry.
	retentionCleaner := history.NewRetentionCleaner(store, history.RetentionConfig{
		RetentionDays: cfg.Retention,
	})
	if retentionCleaner != nil {
		defer retentionCleaner.Stop()
	}

	// Start periodic backups when enabled.
	backupManager, err := backup.NewManager(store, backup.Config{
		Enabled:        cfg.BackupEnabled,
		Interval:       cfg.BackupInterval,
		LocalDir:       cfg.BackupLocalDir,
		KeepLast:       cfg.BackupKeepLast,
		BucketURL:      cfg.BackupBucketURL,
		S3Endpoint:     cfg.BackupS3Endpoint,
		S3Region:       cfg.BackupS3Region,
		S3AccessKey:    cfg.BackupS3AccessKey,
		S3SecretKey:    cfg.BackupS3SecretKey,
		S3SessionToken: cfg.BackupS3SessionToken,
		S3UseSSL:       cfg.BackupS3UseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize backups: %w", err)
	}
	if backupManager != nil {
		defer backupManager.Stop()
	}

	engine, err := sched.New(deck.Cards(), sched.Config{
		EnterDuration:       cfg.EnterDuration,
		ExitDuration:        cfg.ExitDuration,
		JackpotHold:         cfg.JackpotHold,
		InsertDwell:         cfg.InsertDwell,
		UrgentWeatherReplay: cfg.UrgentWeatherReplay,
		JackpotReplay:       cfg.JackpotReplay,
	}, insertBuffer)
	if err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	warmCooldowns(engine, store)

	// Start HTTP API server if enabled.
	if cfg.APIEnabled {
		apiServer := httpserver.NewServer(cfg.APIAddr, engine, store, deck)
		if err := apiServer.Start(); err != nil {
			return fmt.Errorf("failed to start API server: %w", err)
		}
		defer apiServer.Stop()
	}

	// Set up context and signal handling before errgroup.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down gracefully... (press Ctrl+C again to force)")
		cancel()

		// Shutdown deadline starts now, not at boot.
		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()

		select {
		case <-sigCh:
			fmt.Println("\nForce shutdown.")
		case <-deadline.C:
			fmt.Println("Shutdown timed out, forcing exit.")
		}
		os.Exit(1)
	}()

	// Build feed plugins and the multiplexer.
	plugins := buildFeedPlugins(FeedPluginConfig{
		Weather: feed.WeatherConfig{
			BaseURL:   cfg.WeatherURL,
			Point:     cfg.WeatherPoint,
			UserAgent: cfg.WeatherUserAgent,
			Interval:  cfg.WeatherInterval,
		},
		Spots: feed.SpotsConfig{
			BaseURL:  cfg.SpotsURL,
			Interval: cfg.SpotsInterval,
		},
		Contests:       deck.Contests(),
		WeatherEnabled: cfg.WeatherEnabled,
		SpotsEnabled:   cfg.SpotsEnabled,
		ContestEnabled: cfg.ContestEnabled,
	})

	feeds := make([]feed.Feed, 0, len(plugins))
	feedNames := make([]string, 0, len(plugins))
	for _, plugin := range plugins {
		if !plugin.Enabled() {
			continue
		}
		f, err := plugin.Build(ctx)
		if err != nil {
			log.Printf("Error initializing feed plugin %q: %v", plugin.Name(), err)
			continue
		}
		feeds = append(feeds, f)
		feedNames = append(feedNames, plugin.Name())
	}

	mux := feed.NewMultiplexer(ctx, feeds, cfg.MuxBufferSize)
	mux.Start()

	printStartupBanner(cfg, feedNames)

	// Use errgroup for concurrent goroutine lifecycle management.
	g, gctx := errgroup.WithContext(ctx)

	// Scheduler worker: the single consumer of the feed queue.
	g.Go(func() error {
		return engine.Run(gctx, mux.Events())
	})

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Printf("server: errgroup exited with error: %v", err)
	}

	cancel()
	mux.Stop()

	signal.Stop(sigCh)

	return nil
}

func configureRuntimeLogger() func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	home, err := os.UserHomeDir()
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logDir := filepath.Join(home, ".local", "state", "marquee")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logPath := filepath.Join(logDir, "marquee.log")
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	log.SetOutput(f)
	return func() {
		_ = f.Close()
	}
}

// replayUncommittedJournal re-inserts journal entries the history store
// never durably confirmed before the last shutdown.
func replayUncommittedJournal(j *journal.Journal, store *history.Store, batchSize int) error {
	if j == nil {
		return nil
	}
	if batchSize <= 0 {
		batchSize = defaultInsertBatchSize
	}

	batch := make([]*model.Dispatch, 0, batchSize)
	batchMaxSeq := uint64(0)
	replayed := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := store.InsertDispatchBatch(batch); err != nil {
			return err
		}
		if batchMaxSeq > 0 {
			if err := j.Commit(batchMaxSeq); err != nil {
				return err
			}
		}
		replayed += len(batch)
		batch = make([]*model.Dispatch, 0, batchSize)
		batchMaxSeq = 0
		return nil
	}

	if err := j.Replay(func(seq uint64, d *model.Dispatch) error {
		copied := *d
		batch = append(batch, &copied)
		if seq > batchMaxSeq {
			batchMaxSeq = seq
		}
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	}); err != nil {
		return err
	}

	if err := flush(); err != nil {
		return err
	}
	if replayed > 0 {
		log.Printf("dispatch journal: replayed %d uncommitted dispatches", replayed)
	}
	return nil
}

// warmCooldowns rehydrates replay windows from the history store so a
// restart does not re-fire alerts that were shown moments before it.
func warmCooldowns(engine *sched.Engine, store *history.Store) {
	records, err := store.ActiveCooldowns(time.Now())
	if err != nil {
		log.Printf("cooldown warmup failed: %v", err)
		return
	}
	for _, rec := range records {
		engine.RestoreCooldown(rec)
	}
	if len(records) > 0 {
		log.Printf("cooldown warmup: restored %d active replay windows", len(records))
	}
}

func printStartupBanner(cfg appConfig, feedNames []string) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	logo := cyan.Bold(true).Render(`
    ╔╦╗╔═╗╦═╗╔═╗ ╦╦╔═╗╔═╗
    ║║║╠═╣╠╦╝║═╬╗║║║╣ ║╣
    ╩ ╩╩ ╩╩╚═╚═╝╚╚╝╚═╝╚═╝`)

	ver := dim.Render("v" + version)

	var lines []string
	lines = append(lines, "")
	lines = append(lines, logo)
	lines = append(lines, "    "+ver)
	lines = append(lines, "")

	separator := dim.Render("    ─────────────────────────────────")
	lines = append(lines, separator)
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Gateway"))
	lines = append(lines, "")

	if cfg.APIEnabled {
		lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", check, cyan.Render(cfg.APIAddr)))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", dot, dim.Render("disabled")))
	}

	if len(feedNames) > 0 {
		lines = append(lines, fmt.Sprintf("    %s  Feeds          %s", check, cyan.Render(strings.Join(feedNames, ", "))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Feeds          %s", dot, dim.Render("none (rotation only)")))
	}

	lines = append(lines, "")
	lines = append(lines, bold.Render("    Storage"))
	lines = append(lines, "")

	lines = append(lines, fmt.Sprintf("    %s  History        %s", check, dim.Render(shortenPath(cfg.DBPath))))
	if cfg.JournalEnabled {
		lines = append(lines, fmt.Sprintf("    %s  Journal        %s", check, dim.Render(shortenPath(cfg.JournalPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Journal        %s", dot, dim.Render("disabled")))
	}
	if cfg.BackupEnabled {
		lines = append(lines, fmt.Sprintf("    %s  Snapshots      %s", check, dim.Render(shortenPath(cfg.BackupLocalDir))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Snapshots      %s", dot, dim.Render("disabled")))
	}

	lines = append(lines, "")
	lines = append(lines, bold.Render("    Config"))
	lines = append(lines, "")
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", check, dim.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", dot, dim.Render("default (no file)")))
	}
	lines = append(lines, fmt.Sprintf("    %s  Deck           %s", check, dim.Render(shortenPath(cfg.DeckPath))))

	lines = append(lines, "")
	lines = append(lines, separator)
	lines = append(lines, "")
	lines = append(lines, "    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"))
	lines = append(lines, "")

	fmt.Println(strings.Join(lines, "\n"))
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
