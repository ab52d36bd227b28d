package feed

import (
	"context"
	"time"

	"github.com/shackmatrix/marquee/internal/model"
	"github.com/shackmatrix/marquee/internal/normalize"
)

// DefaultContestInterval is how often the contest calendar is re-evaluated.
const DefaultContestInterval = time.Minute

// ContestWindow is one scheduled operating event from the configured
// calendar.
type ContestWindow struct {
	ID    string
	Name  string
	Start time.Time
	End   time.Time
}

// Covers reports whether the window is open at now.
func (w ContestWindow) Covers(now time.Time) bool {
	return !now.Before(w.Start) && now.Before(w.End)
}

// ContestConfig holds the calendar and evaluation interval.
type ContestConfig struct {
	Windows  []ContestWindow
	Interval time.Duration
	Buffer   int
}

// ContestFeed evaluates the contest calendar on a timer and emits a
// status event on every edge: a window opening, closing, or changing.
type ContestFeed struct {
	windows  []ContestWindow
	interval time.Duration

	ch     chan model.FeedEvent
	cancel context.CancelFunc

	// last is touched only from the run goroutine.
	last *model.ContestStatus
}

// NewContestFeed creates a contest feed and starts evaluating.
func NewContestFeed(ctx context.Context, cfg ContestConfig) *ContestFeed {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultContestInterval
	}
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = DefaultFeedBuffer
	}

	ctx, cancel := context.WithCancel(ctx)
	f := &ContestFeed{
		windows:  cfg.Windows,
		interval: interval,
		ch:       make(chan model.FeedEvent, buffer),
		cancel:   cancel,
	}
	go f.run(ctx)
	return f
}

func (f *ContestFeed) Events() <-chan model.FeedEvent { return f.ch }
func (f *ContestFeed) Stop()                          { f.cancel() }
func (f *ContestFeed) Name() string                   { return "contest" }

func (f *ContestFeed) run(ctx context.Context) {
	defer close(f.ch)

	f.evaluate(ctx, time.Now())

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			f.evaluate(ctx, now)
		}
	}
}

// evaluate emits a status event when the active window changed since
// the previous evaluation. The first evaluation always emits, so the
// scheduler starts from a known contest state.
func (f *ContestFeed) evaluate(ctx context.Context, now time.Time) {
	st := f.current(now)
	if f.last != nil && f.last.Active == st.Active && f.last.ContestID == st.ContestID {
		return
	}
	f.last = st
	select {
	case f.ch <- model.FeedEvent{Feed: f.Name(), Contest: st}:
	case <-ctx.Done():
	}
}

// current returns the status for the earliest-ending open window, or an
// inactive status when the calendar has nothing open.
func (f *ContestFeed) current(now time.Time) *model.ContestStatus {
	var open *ContestWindow
	for i := range f.windows {
		w := &f.windows[i]
		if !w.Covers(now) {
			continue
		}
		if open == nil || w.End.Before(open.End) {
			open = w
		}
	}
	if open == nil {
		return &model.ContestStatus{Active: false}
	}
	st, err := normalize.Contest(open.ID, open.Name, true)
	if err != nil {
		return &model.ContestStatus{Active: false}
	}
	return st
}
