package feed

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/shackmatrix/marquee/internal/model"
	"github.com/shackmatrix/marquee/internal/normalize"
)

// DefaultSpotsInterval is how often the DX cluster endpoint is polled.
const DefaultSpotsInterval = 30 * time.Second

// spotDedupeWindow suppresses re-emitting the same callsign/band pair.
// The scheduler's cooldown tracker is the real policy layer; this only
// keeps cluster re-spots from flooding the queue between polls.
const spotDedupeWindow = 5 * time.Minute

// SpotsConfig holds tunable parameters for the rare-DX spot poller.
type SpotsConfig struct {
	BaseURL  string
	Path     string // endpoint returning recent spots as JSON
	Interval time.Duration
	Buffer   int
}

// rawSpot is one spot as the cluster API reports it.
type rawSpot struct {
	Spotted   string  `json:"spotted"`
	Frequency float64 `json:"frequency"`
	Band      string  `json:"band"`
	Mode      string  `json:"mode"`
	Spotter   string  `json:"spotter"`
}

// SpotsFeed polls a DX-cluster spot endpoint, matches callsigns against
// the embedded most-wanted table, and emits alerts for ranked entities.
type SpotsFeed struct {
	client   *resty.Client
	path     string
	interval time.Duration

	ch     chan model.FeedEvent
	cancel context.CancelFunc

	// recent is touched only from the poll goroutine.
	recent map[string]time.Time
}

// NewSpotsFeed creates a rare-DX feed and starts polling.
func NewSpotsFeed(ctx context.Context, cfg SpotsConfig) *SpotsFeed {
	path := cfg.Path
	if path == "" {
		path = "/spots/recent"
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultSpotsInterval
	}
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = DefaultFeedBuffer
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &SpotsFeed{
		client: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(15 * time.Second),
		path:     path,
		interval: interval,
		ch:       make(chan model.FeedEvent, buffer),
		cancel:   cancel,
		recent:   make(map[string]time.Time),
	}
	go s.run(ctx)
	return s
}

func (s *SpotsFeed) Events() <-chan model.FeedEvent { return s.ch }
func (s *SpotsFeed) Stop()                          { s.cancel() }
func (s *SpotsFeed) Name() string                   { return "rare-dx" }

func (s *SpotsFeed) run(ctx context.Context) {
	defer close(s.ch)

	s.pollOnce(ctx, time.Now())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.pollOnce(ctx, now)
		}
	}
}

func (s *SpotsFeed) pollOnce(ctx context.Context, now time.Time) {
	var spots []rawSpot
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&spots).
		Get(s.path)
	if err != nil {
		log.Printf("rare-dx: poll failed: %v", err)
		return
	}
	if resp.IsError() {
		log.Printf("rare-dx: poll returned %s", resp.Status())
		return
	}

	s.gcRecent(now)
	for _, sp := range spots {
		rank, entity, ok := matchWanted(sp.Spotted)
		if !ok {
			continue
		}

		key := fmt.Sprintf("%s|%s", sp.Spotted, sp.Band)
		if seen, dup := s.recent[key]; dup && now.Sub(seen) < spotDedupeWindow {
			continue
		}
		s.recent[key] = now

		ev, err := normalize.Spot(normalize.SpotRecord{
			Callsign:  sp.Spotted,
			Rank:      rank,
			Entity:    entity,
			Frequency: sp.Frequency,
			Band:      sp.Band,
			Mode:      sp.Mode,
			Spotter:   sp.Spotter,
		}, now)
		if err != nil {
			log.Printf("rare-dx: dropping spot: %v", err)
			continue
		}
		if ev == nil {
			continue
		}
		select {
		case s.ch <- model.FeedEvent{Feed: s.Name(), Alert: ev}:
		case <-ctx.Done():
			return
		}
	}
}

func (s *SpotsFeed) gcRecent(now time.Time) {
	for key, seen := range s.recent {
		if now.Sub(seen) >= spotDedupeWindow {
			delete(s.recent, key)
		}
	}
}
