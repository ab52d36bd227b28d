package main

import (
	"testing"
	"time"

	"github.com/shackmatrix/marquee/internal/feed"
)

func TestBuildFeedPlugins_RegistersPrimitives(t *testing.T) {
	t.Parallel()

	plugins := buildFeedPlugins(FeedPluginConfig{
		Weather:        feed.WeatherConfig{Point: "35.22,-97.44"},
		Spots:          feed.SpotsConfig{BaseURL: "http://127.0.0.1:7373"},
		WeatherEnabled: true,
		SpotsEnabled:   true,
		ContestEnabled: true,
		Contests: []feed.ContestWindow{
			{ID: "x", Name: "X", Start: time.Now(), End: time.Now().Add(time.Hour)},
		},
	})

	if len(plugins) != 4 {
		t.Fatalf("expected 4 plugins, got %d", len(plugins))
	}
	wantNames := []string{"weather", "rare-dx", "contest", "stdin"}
	for i, want := range wantNames {
		if plugins[i].Name() != want {
			t.Errorf("plugins[%d] name = %q, want %q", i, plugins[i].Name(), want)
		}
	}
	for _, name := range wantNames[:3] {
		for _, p := range plugins {
			if p.Name() == name && !p.Enabled() {
				t.Errorf("plugin %q should be enabled", name)
			}
		}
	}
}

func TestBuildFeedPlugins_DisabledSelection(t *testing.T) {
	t.Parallel()

	plugins := buildFeedPlugins(FeedPluginConfig{
		WeatherEnabled: false,
		SpotsEnabled:   false,
		// contest enabled but no calendar windows
		ContestEnabled: true,
	})

	for _, p := range plugins {
		switch p.Name() {
		case "weather", "rare-dx", "contest":
			if p.Enabled() {
				t.Errorf("plugin %q should be disabled", p.Name())
			}
		}
	}
}
