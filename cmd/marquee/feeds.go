package main

import (
	"context"
	"os"

	"github.com/shackmatrix/marquee/internal/feed"
)

// FeedPlugin is a small plugin primitive for wiring event feeds.
type FeedPlugin interface {
	Name() string
	Enabled() bool
	Build(ctx context.Context) (feed.Feed, error)
}

// FeedPluginConfig defines runtime feed selection.
type FeedPluginConfig struct {
	Weather  feed.WeatherConfig
	Spots    feed.SpotsConfig
	Contest  feed.ContestConfig
	Contests []feed.ContestWindow

	WeatherEnabled bool
	SpotsEnabled   bool
	ContestEnabled bool
}

func buildFeedPlugins(cfg FeedPluginConfig) []FeedPlugin {
	plugins := make([]FeedPlugin, 0, 4)
	plugins = append(plugins, weatherFeedPlugin{cfg: cfg.Weather, enabled: cfg.WeatherEnabled})
	plugins = append(plugins, spotsFeedPlugin{cfg: cfg.Spots, enabled: cfg.SpotsEnabled})
	plugins = append(plugins, contestFeedPlugin{
		cfg:     cfg.Contest,
		windows: cfg.Contests,
		enabled: cfg.ContestEnabled && len(cfg.Contests) > 0,
	})
	plugins = append(plugins, stdinFeedPlugin{})
	return plugins
}

type weatherFeedPlugin struct {
	cfg     feed.WeatherConfig
	enabled bool
}

func (p weatherFeedPlugin) Name() string { return "weather" }

func (p weatherFeedPlugin) Enabled() bool { return p.enabled }

func (p weatherFeedPlugin) Build(ctx context.Context) (feed.Feed, error) {
	return feed.NewWeatherFeed(ctx, p.cfg), nil
}

type spotsFeedPlugin struct {
	cfg     feed.SpotsConfig
	enabled bool
}

func (p spotsFeedPlugin) Name() string { return "rare-dx" }

func (p spotsFeedPlugin) Enabled() bool { return p.enabled }

func (p spotsFeedPlugin) Build(ctx context.Context) (feed.Feed, error) {
	return feed.NewSpotsFeed(ctx, p.cfg), nil
}

type contestFeedPlugin struct {
	cfg     feed.ContestConfig
	windows []feed.ContestWindow
	enabled bool
}

func (p contestFeedPlugin) Name() string { return "contest" }

func (p contestFeedPlugin) Enabled() bool { return p.enabled }

func (p contestFeedPlugin) Build(ctx context.Context) (feed.Feed, error) {
	cfg := p.cfg
	cfg.Windows = p.windows
	return feed.NewContestFeed(ctx, cfg), nil
}

// stdinFeedPlugin enables JSON event injection when stdin is piped,
// mirroring how test alerts are driven into a live display.
type stdinFeedPlugin struct{}

func (p stdinFeedPlugin) Name() string { return "stdin" }

func (p stdinFeedPlugin) Enabled() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

func (p stdinFeedPlugin) Build(ctx context.Context) (feed.Feed, error) {
	return feed.NewStdinFeed(ctx), nil
}
