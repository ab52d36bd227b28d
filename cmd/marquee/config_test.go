package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// resetMarqueeEnv clears MARQUEE_* variables so ambient environment does
// not leak into config tests.
func resetMarqueeEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "MARQUEE_") {
			key := strings.SplitN(kv, "=", 2)[0]
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	resetMarqueeEnv(t)

	cfg, err := loadConfig(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.APIAddr != "127.0.0.1:8590" {
		t.Errorf("api addr = %q", cfg.APIAddr)
	}
	if cfg.EnterDuration != 2*time.Second || cfg.ExitDuration != 2*time.Second {
		t.Errorf("animation durations = %v/%v", cfg.EnterDuration, cfg.ExitDuration)
	}
	if cfg.JackpotHold != 15*time.Second {
		t.Errorf("jackpot hold = %v", cfg.JackpotHold)
	}
	if cfg.UrgentWeatherReplay != 30*time.Minute {
		t.Errorf("urgent weather replay = %v", cfg.UrgentWeatherReplay)
	}
	if cfg.JackpotReplay != 4*time.Hour {
		t.Errorf("jackpot replay = %v", cfg.JackpotReplay)
	}
	if cfg.Retention != defaultRetentionDays {
		t.Errorf("retention = %d", cfg.Retention)
	}
	if !cfg.JournalEnabled {
		t.Error("journal should default to enabled")
	}
	if !cfg.APIEnabled {
		t.Error("api should default to enabled")
	}
	if cfg.WeatherEnabled || cfg.SpotsEnabled {
		t.Error("network feeds should default to disabled")
	}
}

func TestLoadConfig_FileOverrides(t *testing.T) {
	resetMarqueeEnv(t)

	cfg, err := loadConfig(writeConfig(t, `
api-port: 9999
jackpot-hold: 20s
weather-enabled: true
weather-point: "35.22,-97.44"
history-retention: 7
`))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.APIAddr != "127.0.0.1:9999" {
		t.Errorf("api addr = %q", cfg.APIAddr)
	}
	if cfg.JackpotHold != 20*time.Second {
		t.Errorf("jackpot hold = %v", cfg.JackpotHold)
	}
	if !cfg.WeatherEnabled || cfg.WeatherPoint != "35.22,-97.44" {
		t.Errorf("weather config = %v %q", cfg.WeatherEnabled, cfg.WeatherPoint)
	}
	if cfg.Retention != 7 {
		t.Errorf("retention = %d", cfg.Retention)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	resetMarqueeEnv(t)
	t.Setenv("MARQUEE_API_PORT", "7070")

	cfg, err := loadConfig(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.APIAddr != "127.0.0.1:7070" {
		t.Errorf("api addr = %q, want env override", cfg.APIAddr)
	}
}

func TestLoadConfig_Validation(t *testing.T) {
	resetMarqueeEnv(t)

	tests := []struct {
		name string
		yaml string
	}{
		{"bad api port", "api-port: 99999\n"},
		{"weather without point", "weather-enabled: true\n"},
		{"spots without url", "spots-enabled: true\n"},
	}

	for _, tt := range tests {
		if _, err := loadConfig(writeConfig(t, tt.yaml)); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}
