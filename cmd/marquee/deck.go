package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shackmatrix/marquee/internal/feed"
	"github.com/shackmatrix/marquee/internal/model"
)

// deckFile is the on-disk shape of the deck YAML: the rotation cards the
// display cycles through plus the contest calendar.
type deckFile struct {
	Cards []struct {
		ID       string `yaml:"id"`
		Category string `yaml:"category"`
		Dwell    string `yaml:"dwell"`
		Enabled  *bool  `yaml:"enabled"`
	} `yaml:"cards"`
	Contests []struct {
		ID    string    `yaml:"id"`
		Name  string    `yaml:"name"`
		Start time.Time `yaml:"start"`
		End   time.Time `yaml:"end"`
	} `yaml:"contests"`
}

// Deck is the immutable card list loaded at startup. It serves the HTTP
// card listing and seeds the rotation scheduler.
type Deck struct {
	cards    []*model.ViewCard
	contests []feed.ContestWindow
}

func (d *Deck) Cards() []*model.ViewCard       { return d.cards }
func (d *Deck) Contests() []feed.ContestWindow { return d.contests }

// loadDeck reads the deck file at path. A missing file yields the
// default deck so a fresh install shows something immediately.
func loadDeck(path string) (*Deck, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return defaultDeck(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read deck file: %w", err)
	}

	var df deckFile
	if err := yaml.Unmarshal(raw, &df); err != nil {
		return nil, fmt.Errorf("parse deck file: %w", err)
	}
	if len(df.Cards) == 0 {
		return nil, fmt.Errorf("deck file %s lists no cards", path)
	}

	deck := &Deck{}
	seen := make(map[string]bool, len(df.Cards))
	for i, c := range df.Cards {
		if c.ID == "" {
			return nil, fmt.Errorf("deck card %d has no id", i)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("duplicate deck card id %q", c.ID)
		}
		seen[c.ID] = true

		category, err := parseCardCategory(c.Category)
		if err != nil {
			return nil, fmt.Errorf("deck card %q: %w", c.ID, err)
		}

		dwell := model.DefaultDwell
		if c.Dwell != "" {
			dwell, err = time.ParseDuration(c.Dwell)
			if err != nil {
				return nil, fmt.Errorf("deck card %q dwell: %w", c.ID, err)
			}
			if dwell <= 0 {
				return nil, fmt.Errorf("deck card %q dwell must be positive", c.ID)
			}
		}

		enabled := true
		if c.Enabled != nil {
			enabled = *c.Enabled
		}

		deck.cards = append(deck.cards, &model.ViewCard{
			ID:       c.ID,
			Category: category,
			Dwell:    dwell,
			Enabled:  enabled,
		})
	}

	for i, c := range df.Contests {
		if c.ID == "" || c.Name == "" {
			return nil, fmt.Errorf("deck contest %d needs id and name", i)
		}
		if !c.End.After(c.Start) {
			return nil, fmt.Errorf("deck contest %q end must be after start", c.ID)
		}
		deck.contests = append(deck.contests, feed.ContestWindow{
			ID:    c.ID,
			Name:  c.Name,
			Start: c.Start,
			End:   c.End,
		})
	}

	return deck, nil
}

func parseCardCategory(s string) (model.CardCategory, error) {
	switch s {
	case "", "info":
		return model.CardInfo, nil
	case "contest":
		return model.CardContest, nil
	default:
		return 0, fmt.Errorf("unknown card category %q", s)
	}
}

// defaultDeck mirrors the stock shack display: clock first, then the
// operating-condition cards, with the contest card ready but passive
// until a calendar window opens.
func defaultDeck() *Deck {
	card := func(id string, category model.CardCategory) *model.ViewCard {
		return &model.ViewCard{
			ID:       id,
			Category: category,
			Dwell:    model.DefaultDwell,
			Enabled:  true,
		}
	}
	return &Deck{
		cards: []*model.ViewCard{
			card("clock", model.CardInfo),
			card("weather-current", model.CardInfo),
			card("band-conditions", model.CardInfo),
			card("solar-conditions", model.CardInfo),
			card("dx-spots", model.CardInfo),
			card("contest", model.CardContest),
		},
	}
}
