package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"

	"github.com/shackmatrix/marquee/internal/model"
)

const (
	// DefaultStdinBuffer is the default channel buffer size for stdin events.
	DefaultStdinBuffer = 1024

	// DefaultStdinMaxLineSize is the maximum size (in bytes) of a single line.
	DefaultStdinMaxLineSize = 1024 * 1024 // 1MB
)

// StdinConfig holds tunable parameters for the stdin feed.
type StdinConfig struct {
	BufferSize  int
	MaxLineSize int
	Reader      io.Reader // defaults to os.Stdin
}

// stdinLine is one injected event: exactly one of alert or contest set.
type stdinLine struct {
	Alert   *model.AlertEvent    `json:"alert,omitempty"`
	Contest *model.ContestStatus `json:"contest,omitempty"`
}

// StdinFeed reads JSON event lines from stdin. It exists for bench
// testing the scheduler without live feeds: pipe alert and clear lines
// in and watch the display react.
type StdinFeed struct {
	ch     chan model.FeedEvent
	cancel context.CancelFunc
}

// NewStdinFeed creates a StdinFeed that reads in a background goroutine.
func NewStdinFeed(ctx context.Context, conf ...StdinConfig) *StdinFeed {
	bufferSize := DefaultStdinBuffer
	maxLineSize := DefaultStdinMaxLineSize
	var reader io.Reader = os.Stdin
	if len(conf) > 0 {
		if conf[0].BufferSize > 0 {
			bufferSize = conf[0].BufferSize
		}
		if conf[0].MaxLineSize > 0 {
			maxLineSize = conf[0].MaxLineSize
		}
		if conf[0].Reader != nil {
			reader = conf[0].Reader
		}
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &StdinFeed{
		ch:     make(chan model.FeedEvent, bufferSize),
		cancel: cancel,
	}
	go s.read(ctx, reader, maxLineSize)
	return s
}

func (s *StdinFeed) read(ctx context.Context, reader io.Reader, maxLineSize int) {
	defer close(s.ch)

	scanner := bufio.NewScanner(reader)
	buf := make([]byte, maxLineSize)
	scanner.Buffer(buf, maxLineSize)

	// A single goroutine does the blocking scan; the select below
	// detects cancellation without a goroutine per line.
	type scanResult struct {
		line string
		ok   bool
	}
	results := make(chan scanResult)
	go func() {
		defer close(results)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}
			select {
			case results <- scanResult{line: line, ok: true}:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			if errors.Is(err, bufio.ErrTooLong) {
				log.Printf("feed: stdin line exceeded max size (%d bytes), stopping stdin feed", maxLineSize)
				return
			}
			log.Printf("feed: stdin scanner error: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-results:
			if !ok || !r.ok {
				return
			}
			var parsed stdinLine
			if err := json.Unmarshal([]byte(r.line), &parsed); err != nil {
				log.Printf("feed: stdin: dropping malformed line: %v", err)
				continue
			}
			if parsed.Alert == nil && parsed.Contest == nil {
				continue
			}
			ev := model.FeedEvent{Feed: s.Name(), Alert: parsed.Alert, Contest: parsed.Contest}
			select {
			case s.ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *StdinFeed) Events() <-chan model.FeedEvent { return s.ch }
func (s *StdinFeed) Stop()                          { s.cancel() }
func (s *StdinFeed) Name() string                   { return "stdin" }
