package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shackmatrix/marquee/internal/model"
)

func writeDeck(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deck.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write deck: %v", err)
	}
	return path
}

func TestLoadDeck_MissingFileUsesDefault(t *testing.T) {
	t.Parallel()

	deck, err := loadDeck(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("loadDeck: %v", err)
	}
	cards := deck.Cards()
	if len(cards) == 0 {
		t.Fatal("default deck is empty")
	}
	if cards[0].ID != "clock" {
		t.Errorf("first default card = %q, want clock", cards[0].ID)
	}
	var hasContest bool
	for _, c := range cards {
		if c.Category == model.CardContest {
			hasContest = true
		}
	}
	if !hasContest {
		t.Error("default deck has no contest card")
	}
}

func TestLoadDeck_ParsesCardsAndContests(t *testing.T) {
	t.Parallel()

	path := writeDeck(t, `
cards:
  - id: clock
    dwell: 20s
  - id: contest
    category: contest
    dwell: 45s
  - id: solar-conditions
    enabled: false
contests:
  - id: cq-ww-ssb
    name: CQ WW SSB
    start: 2026-10-24T00:00:00Z
    end: 2026-10-26T00:00:00Z
`)

	deck, err := loadDeck(path)
	if err != nil {
		t.Fatalf("loadDeck: %v", err)
	}

	cards := deck.Cards()
	if len(cards) != 3 {
		t.Fatalf("cards = %d, want 3", len(cards))
	}
	if cards[0].Dwell != 20*time.Second {
		t.Errorf("clock dwell = %v, want 20s", cards[0].Dwell)
	}
	if cards[1].Category != model.CardContest {
		t.Errorf("contest category = %v", cards[1].Category)
	}
	if cards[1].Dwell != 45*time.Second {
		t.Errorf("contest dwell = %v, want 45s", cards[1].Dwell)
	}
	if cards[2].Enabled {
		t.Error("solar-conditions should be disabled")
	}

	contests := deck.Contests()
	if len(contests) != 1 {
		t.Fatalf("contests = %d, want 1", len(contests))
	}
	if contests[0].Name != "CQ WW SSB" {
		t.Errorf("contest name = %q", contests[0].Name)
	}
	if !contests[0].Covers(time.Date(2026, 10, 25, 12, 0, 0, 0, time.UTC)) {
		t.Error("contest window should cover mid-contest instant")
	}
}

func TestLoadDeck_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{"no cards", "cards: []\n"},
		{"missing id", "cards:\n  - dwell: 10s\n"},
		{"duplicate id", "cards:\n  - id: a\n  - id: a\n"},
		{"bad category", "cards:\n  - id: a\n    category: takeover\n"},
		{"bad dwell", "cards:\n  - id: a\n    dwell: fast\n"},
		{"negative dwell", "cards:\n  - id: a\n    dwell: -5s\n"},
		{"contest missing name", "cards:\n  - id: a\ncontests:\n  - id: x\n    start: 2026-01-01T00:00:00Z\n    end: 2026-01-02T00:00:00Z\n"},
		{"contest inverted window", "cards:\n  - id: a\ncontests:\n  - id: x\n    name: X\n    start: 2026-01-02T00:00:00Z\n    end: 2026-01-01T00:00:00Z\n"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := loadDeck(writeDeck(t, tt.yaml)); err == nil {
				t.Fatalf("expected error for %s", tt.name)
			}
		})
	}
}
