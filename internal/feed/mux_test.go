package feed

import (
	"context"
	"testing"
	"time"

	"github.com/shackmatrix/marquee/internal/model"
)

// fakeFeed is a manually driven feed for multiplexer tests.
type fakeFeed struct {
	name string
	ch   chan model.FeedEvent
}

func newFakeFeed(name string) *fakeFeed {
	return &fakeFeed{name: name, ch: make(chan model.FeedEvent, 8)}
}

func (f *fakeFeed) Events() <-chan model.FeedEvent { return f.ch }
func (f *fakeFeed) Stop()                          { close(f.ch) }
func (f *fakeFeed) Name() string                   { return f.name }

func TestMultiplexerMergesAndTags(t *testing.T) {
	wx := newFakeFeed("weather")
	dx := newFakeFeed("rare-dx")

	m := NewMultiplexer(context.Background(), []Feed{wx, dx}, 16)
	m.Start()

	wx.ch <- model.FeedEvent{Alert: &model.AlertEvent{Source: model.SourceWeather, Identity: "a"}}
	dx.ch <- model.FeedEvent{Alert: &model.AlertEvent{Source: model.SourceRareDX, Identity: "b"}}
	// Empty events are dropped.
	wx.ch <- model.FeedEvent{}

	got := map[string]string{}
	for i := 0; i < 2; i++ {
		select {
		case ev := <-m.Events():
			got[ev.Alert.Identity] = ev.Feed
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for merged events, got %v", got)
		}
	}
	if got["a"] != "weather" || got["b"] != "rare-dx" {
		t.Fatalf("feed tags = %v", got)
	}

	select {
	case ev, ok := <-m.Events():
		if ok {
			t.Fatalf("unexpected extra event %+v", ev)
		}
	case <-time.After(50 * time.Millisecond):
	}

	m.Stop()
}

func TestMultiplexerClosesWhenFeedsFinish(t *testing.T) {
	wx := newFakeFeed("weather")
	m := NewMultiplexer(context.Background(), []Feed{wx}, 16)
	m.Start()

	close(wx.ch)

	select {
	case _, ok := <-m.Events():
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("events channel did not close after feeds finished")
	}
}

func TestMultiplexerNoFeeds(t *testing.T) {
	m := NewMultiplexer(context.Background(), nil, 16)
	if m.HasFeeds() {
		t.Fatalf("HasFeeds: want false")
	}
	m.Start()

	if _, ok := <-m.Events(); ok {
		t.Fatalf("expected immediately closed channel")
	}
}
