package feed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shackmatrix/marquee/internal/model"
)

func TestStdinFeedParsesEventLines(t *testing.T) {
	input := strings.Join([]string{
		`{"alert":{"source":"weather","tier":"CRITICAL","identity":"NWS-KOUN-TOR-001","title":"TORNADO WARNING"}}`,
		`not json at all`,
		`{}`,
		`{"contest":{"contest_id":"cq-ww-ssb","name":"CQ WW SSB","active":true}}`,
		`{"alert":{"source":"weather","identity":"NWS-KOUN-TOR-001","clear":true}}`,
	}, "\n")

	f := NewStdinFeed(context.Background(), StdinConfig{Reader: strings.NewReader(input)})
	defer f.Stop()

	var events []model.FeedEvent
	for ev := range f.Events() {
		events = append(events, ev)
	}
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3 (junk and empty lines dropped)", len(events))
	}

	if events[0].Alert == nil || events[0].Alert.Tier != model.TierCritical {
		t.Fatalf("first event = %+v", events[0])
	}
	if events[1].Contest == nil || !events[1].Contest.Active {
		t.Fatalf("second event = %+v", events[1])
	}
	if events[2].Alert == nil || !events[2].Alert.Clear {
		t.Fatalf("third event = %+v", events[2])
	}
	for _, ev := range events {
		if ev.Feed != "stdin" {
			t.Fatalf("feed tag = %q", ev.Feed)
		}
	}
}

func TestStdinFeedStops(t *testing.T) {
	// A reader that never finishes; Stop must still close the stream.
	r, pipeDone := neverEndingReader()
	defer close(pipeDone)

	f := NewStdinFeed(context.Background(), StdinConfig{Reader: r})
	f.Stop()

	select {
	case _, ok := <-f.Events():
		if ok {
			t.Fatalf("expected closed channel after Stop")
		}
	case <-time.After(time.Second):
		t.Fatalf("events channel did not close after Stop")
	}
}

// neverEndingReader blocks forever on Read until done is closed.
func neverEndingReader() (blockingReader, chan struct{}) {
	done := make(chan struct{})
	return blockingReader{done: done}, done
}

type blockingReader struct{ done chan struct{} }

func (r blockingReader) Read(p []byte) (int, error) {
	<-r.done
	return 0, nil
}
