package feed

import (
	"context"
	"log"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/shackmatrix/marquee/internal/model"
	"github.com/shackmatrix/marquee/internal/normalize"
)

const (
	// DefaultWeatherInterval is how often the NWS active-alert set is polled.
	DefaultWeatherInterval = 120 * time.Second

	// DefaultFeedBuffer is the per-feed event channel buffer.
	DefaultFeedBuffer = 256
)

// WeatherConfig holds tunable parameters for the NWS alert poller.
type WeatherConfig struct {
	BaseURL   string // defaults to the public NWS API
	Point     string // "lat,lon" of the station
	UserAgent string // NWS requires an identifying User-Agent
	Interval  time.Duration
	Buffer    int
}

// alertsResponse is the GeoJSON envelope NWS wraps active alerts in.
type alertsResponse struct {
	Features []struct {
		Properties normalize.WeatherRecord `json:"properties"`
	} `json:"features"`
}

// WeatherFeed polls the NWS active-alerts endpoint and emits alert and
// clear events by diffing consecutive polls: an ID entering the active
// set is an alert, an ID leaving it is a clear.
type WeatherFeed struct {
	client   *resty.Client
	point    string
	interval time.Duration

	ch     chan model.FeedEvent
	cancel context.CancelFunc

	// active is touched only from the poll goroutine.
	active map[string]struct{}
}

// NewWeatherFeed creates a weather feed and starts polling.
func NewWeatherFeed(ctx context.Context, cfg WeatherConfig) *WeatherFeed {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.weather.gov"
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "marquee (shack display)"
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultWeatherInterval
	}
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = DefaultFeedBuffer
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &WeatherFeed{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(15 * time.Second).
			SetHeader("User-Agent", ua).
			SetHeader("Accept", "application/geo+json"),
		point:    cfg.Point,
		interval: interval,
		ch:       make(chan model.FeedEvent, buffer),
		cancel:   cancel,
		active:   make(map[string]struct{}),
	}
	go w.run(ctx)
	return w
}

func (w *WeatherFeed) Events() <-chan model.FeedEvent { return w.ch }
func (w *WeatherFeed) Stop()                          { w.cancel() }
func (w *WeatherFeed) Name() string                   { return "weather" }

func (w *WeatherFeed) run(ctx context.Context) {
	defer close(w.ch)

	w.pollOnce(ctx, time.Now())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			w.pollOnce(ctx, now)
		}
	}
}

// pollOnce fetches the active set and emits the diff against the
// previous poll.
func (w *WeatherFeed) pollOnce(ctx context.Context, now time.Time) {
	var out alertsResponse
	resp, err := w.client.R().
		SetContext(ctx).
		SetQueryParam("point", w.point).
		SetResult(&out).
		Get("/alerts/active")
	if err != nil {
		log.Printf("weather: poll failed: %v", err)
		return
	}
	if resp.IsError() {
		log.Printf("weather: poll returned %s", resp.Status())
		return
	}

	current := make(map[string]struct{}, len(out.Features))
	for _, f := range out.Features {
		rec := f.Properties
		current[rec.ID] = struct{}{}
		if _, known := w.active[rec.ID]; known {
			continue
		}
		ev, err := normalize.Weather(rec, now)
		if err != nil {
			log.Printf("weather: dropping record: %v", err)
			continue
		}
		w.emit(ctx, model.FeedEvent{Feed: w.Name(), Alert: ev})
	}

	for id := range w.active {
		if _, still := current[id]; !still {
			w.emit(ctx, model.FeedEvent{Feed: w.Name(), Alert: normalize.WeatherClear(id, now)})
		}
	}
	w.active = current
}

func (w *WeatherFeed) emit(ctx context.Context, ev model.FeedEvent) {
	select {
	case w.ch <- ev:
	case <-ctx.Done():
	}
}
