package feed

import (
	"context"
	"testing"
	"time"

	"github.com/shackmatrix/marquee/internal/model"
)

func TestContestFeedEmitsEdges(t *testing.T) {
	start := time.Date(2026, 10, 24, 0, 0, 0, 0, time.UTC)
	end := start.Add(48 * time.Hour)

	f := &ContestFeed{
		windows: []ContestWindow{
			{ID: "cq-ww-ssb", Name: "CQ WW SSB", Start: start, End: end},
		},
		ch: make(chan model.FeedEvent, 8),
	}
	ctx := context.Background()

	// Before the window: initial evaluation reports inactive.
	f.evaluate(ctx, start.Add(-time.Hour))
	ev := <-f.ch
	if ev.Contest == nil || ev.Contest.Active {
		t.Fatalf("initial status = %+v, want inactive", ev.Contest)
	}

	// No edge, no event.
	f.evaluate(ctx, start.Add(-30*time.Minute))
	select {
	case ev := <-f.ch:
		t.Fatalf("unchanged evaluation emitted %+v", ev)
	default:
	}

	// Window opens.
	f.evaluate(ctx, start.Add(time.Minute))
	ev = <-f.ch
	if ev.Contest == nil || !ev.Contest.Active || ev.Contest.Name != "CQ WW SSB" {
		t.Fatalf("open status = %+v", ev.Contest)
	}

	// Window closes.
	f.evaluate(ctx, end.Add(time.Minute))
	ev = <-f.ch
	if ev.Contest == nil || ev.Contest.Active {
		t.Fatalf("close status = %+v", ev.Contest)
	}
}

func TestContestFeedOverlapPicksEarliestEnding(t *testing.T) {
	now := time.Date(2026, 10, 24, 12, 0, 0, 0, time.UTC)

	f := &ContestFeed{
		windows: []ContestWindow{
			{ID: "long", Name: "Long Contest", Start: now.Add(-2 * time.Hour), End: now.Add(40 * time.Hour)},
			{ID: "sprint", Name: "Sprint", Start: now.Add(-time.Hour), End: now.Add(4 * time.Hour)},
		},
		ch: make(chan model.FeedEvent, 8),
	}

	st := f.current(now)
	if st.ContestID != "sprint" {
		t.Fatalf("current = %s, want the earliest-ending open window", st.ContestID)
	}
}
