package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shackmatrix/marquee/internal/model"
)

func TestMatchWanted(t *testing.T) {
	cases := []struct {
		call   string
		rank   int
		wantOK bool
	}{
		{"P5DX", 1, true},
		{"p5dx", 1, true}, // case-insensitive
		{"BS7H", 4, true},
		{"P5/DL1ABC", 1, true}, // compound prefix form
		{"DL1ABC/P5", 1, true}, // compound suffix form
		{"FT5WQ", 3, true},     // slash notation flattened
		{"3C0X", 46, true},     // longest prefix beats 3C
		{"3C1AB", 45, true},
		{"W1AW", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		rank, _, ok := matchWanted(tc.call)
		if ok != tc.wantOK || rank != tc.rank {
			t.Fatalf("matchWanted(%q) = (%d, %v), want (%d, %v)", tc.call, rank, ok, tc.rank, tc.wantOK)
		}
	}
}

func TestSpotsFeedEmitsRankedSpots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/spots/recent" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"spotted":"P5DX","frequency":14074.0,"band":"20m","mode":"FT8","spotter":"JA1XYZ"},
			{"spotted":"EZ8AA","frequency":7012.5,"band":"40m","mode":"CW","spotter":"W1AW"},
			{"spotted":"K5ABC","frequency":21200.0,"band":"15m","mode":"SSB","spotter":"N0CALL"}
		]`))
	}))
	defer srv.Close()

	f := NewSpotsFeed(context.Background(), SpotsConfig{BaseURL: srv.URL, Interval: time.Hour})
	defer f.Stop()

	events := drainEvents(f.ch)
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2 (unranked K5ABC skipped)", len(events))
	}

	byIdentity := map[string]*model.AlertEvent{}
	for _, ev := range events {
		byIdentity[ev.Alert.Identity] = ev.Alert
	}
	jackpot := byIdentity["P5DX#1"]
	if jackpot == nil || jackpot.Tier != model.TierCritical {
		t.Fatalf("jackpot alert = %+v", jackpot)
	}
	dropin := byIdentity["EZ8AA#26"]
	if dropin == nil || dropin.Tier != model.TierUrgent {
		t.Fatalf("drop-in alert = %+v", dropin)
	}
}

func TestSpotsFeedDedupesWithinWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"spotted":"P5DX","frequency":14074.0,"band":"20m","mode":"FT8","spotter":"JA1XYZ"}]`))
	}))
	defer srv.Close()

	f := NewSpotsFeed(context.Background(), SpotsConfig{BaseURL: srv.URL, Interval: time.Hour})
	defer f.Stop()

	if events := drainEvents(f.ch); len(events) != 1 {
		t.Fatalf("first poll events = %d, want 1", len(events))
	}

	// Same spot one minute later stays quiet; after the window it re-emits.
	now := time.Now()
	f.pollOnce(context.Background(), now.Add(time.Minute))
	if events := drainEvents(f.ch); len(events) != 0 {
		t.Fatalf("re-spot inside dedupe window emitted %d events", len(events))
	}

	f.pollOnce(context.Background(), now.Add(spotDedupeWindow+2*time.Minute))
	if events := drainEvents(f.ch); len(events) != 1 {
		t.Fatalf("re-spot after dedupe window emitted %d events, want 1", len(events))
	}
}
