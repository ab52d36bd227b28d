package feed

import (
	"context"
	"sync"

	"github.com/shackmatrix/marquee/internal/model"
)

// DefaultMuxBuffer is the default channel buffer size for the feed multiplexer.
const DefaultMuxBuffer = 1024

// Multiplexer merges multiple feeds into the single serialized stream
// the scheduler worker consumes.
type Multiplexer struct {
	ctx    context.Context
	cancel context.CancelFunc

	feeds  []Feed
	events chan model.FeedEvent

	startOnce sync.Once
	stopOnce  sync.Once
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewMultiplexer(parent context.Context, feeds []Feed, buffer int) *Multiplexer {
	if buffer <= 0 {
		buffer = DefaultMuxBuffer
	}
	ctx, cancel := context.WithCancel(parent)
	return &Multiplexer{
		ctx:    ctx,
		cancel: cancel,
		feeds:  feeds,
		events: make(chan model.FeedEvent, buffer),
	}
}

func (m *Multiplexer) Start() {
	m.startOnce.Do(func() {
		if len(m.feeds) == 0 {
			m.closeOutput()
			return
		}

		for _, f := range m.feeds {
			f := f
			m.wg.Add(1)
			go m.forward(f)
		}

		go func() {
			m.wg.Wait()
			m.closeOutput()
		}()
	})
}

func (m *Multiplexer) Stop() {
	m.stopOnce.Do(func() {
		m.cancel()
		for _, f := range m.feeds {
			f.Stop()
		}
		m.wg.Wait()
		m.closeOutput()
	})
}

func (m *Multiplexer) HasFeeds() bool {
	return len(m.feeds) > 0
}

func (m *Multiplexer) Events() <-chan model.FeedEvent {
	return m.events
}

func (m *Multiplexer) forward(f Feed) {
	defer m.wg.Done()

	src := f.Events()
	for {
		select {
		case <-m.ctx.Done():
			return
		case ev, ok := <-src:
			if !ok {
				return
			}
			if ev.Alert == nil && ev.Contest == nil {
				continue
			}
			if ev.Feed == "" {
				ev.Feed = f.Name()
			}
			select {
			case m.events <- ev:
			case <-m.ctx.Done():
				return
			}
		}
	}
}

func (m *Multiplexer) closeOutput() {
	m.closeOnce.Do(func() {
		close(m.events)
	})
}
