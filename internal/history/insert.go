package history

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shackmatrix/marquee/internal/journal"
	"github.com/shackmatrix/marquee/internal/model"
)

// DefaultFlushQueueSize is the number of batches that can be queued for async flushing.
const DefaultFlushQueueSize = 16

// journalAppendAttempts bounds journal retries inside Add. The caller
// is the scheduler worker, which must never stall on a bad disk.
const journalAppendAttempts = 3

var eventIDCounter atomic.Uint64

type journaledDispatch struct {
	seq      uint64
	dispatch *model.Dispatch
}

type durableJournal interface {
	Append(d *model.Dispatch) (uint64, error)
	Commit(seq uint64) error
	Close() error
}

// InsertBuffer batches dispatches and flushes them to the store
// asynchronously. Add() never blocks on database writes, so the
// scheduler worker can use it as its dispatch sink.
type InsertBuffer struct {
	writer        model.HistoryWriter
	mu            sync.Mutex
	pending       []journaledDispatch
	flushChan     chan []journaledDispatch
	maxBatch      int
	flushInterval time.Duration
	done          chan struct{}
	wg            sync.WaitGroup
	tickWg        sync.WaitGroup // separate WaitGroup for tickLoop
	stopOnce      sync.Once
	journal       durableJournal

	// backpressureCount tracks inline flushes for throttled logging.
	backpressureCount atomic.Int64
	lastBPLog         atomic.Int64 // unix timestamp of last backpressure log
}

// InsertBufferConfig holds tunable parameters for the insert buffer.
type InsertBufferConfig struct {
	BatchSize      int
	FlushInterval  time.Duration
	FlushQueueSize int
	Journal        *journal.Journal
}

// NewInsertBuffer creates an insert buffer that flushes to writer. The
// flush goroutine processes batches asynchronously so Add() never
// blocks on IO.
func NewInsertBuffer(writer model.HistoryWriter, conf ...InsertBufferConfig) *InsertBuffer {
	batchSize := 64
	flushInterval := time.Second
	flushQueueSize := DefaultFlushQueueSize
	if len(conf) > 0 {
		if conf[0].BatchSize > 0 {
			batchSize = conf[0].BatchSize
		}
		if conf[0].FlushInterval > 0 {
			flushInterval = conf[0].FlushInterval
		}
		if conf[0].FlushQueueSize > 0 {
			flushQueueSize = conf[0].FlushQueueSize
		}
	}

	b := &InsertBuffer{
		writer:        writer,
		pending:       make([]journaledDispatch, 0, batchSize),
		flushChan:     make(chan []journaledDispatch, flushQueueSize),
		maxBatch:      batchSize,
		flushInterval: flushInterval,
		done:          make(chan struct{}),
	}
	if len(conf) > 0 && conf[0].Journal != nil {
		b.journal = conf[0].Journal
	}

	b.wg.Add(1)
	go b.flushWorker()

	b.wg.Add(1)
	b.tickWg.Add(1)
	go b.tickLoop()

	return b
}

// RecordDispatch queues a dispatch for batch insertion. Satisfies the
// scheduler's sink interface.
func (b *InsertBuffer) RecordDispatch(d *model.Dispatch) {
	b.Add(d)
}

// tickLoop periodically drains the pending buffer.
func (b *InsertBuffer) tickLoop() {
	defer b.wg.Done()
	defer b.tickWg.Done()
	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.drainPending()
		case <-b.done:
			b.drainPending() // final drain
			return
		}
	}
}

// logBackpressure emits a throttled warning (at most once per 10 seconds)
// when the flush channel is full and an inline flush is triggered.
func (b *InsertBuffer) logBackpressure() {
	count := b.backpressureCount.Add(1)
	now := time.Now().Unix()
	last := b.lastBPLog.Load()
	if now-last >= 10 && b.lastBPLog.CompareAndSwap(last, now) {
		log.Printf("history: backpressure, %d inline flushes (flush channel full)", count)
	}
}

// drainPending moves pending dispatches to the flush channel without blocking.
func (b *InsertBuffer) drainPending() {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return
	}
	batch := b.pending
	b.pending = make([]journaledDispatch, 0, b.maxBatch)
	b.mu.Unlock()

	// Non-blocking send to the flush channel. If the channel is full,
	// flush synchronously as a safety valve.
	select {
	case b.flushChan <- batch:
	default:
		b.logBackpressure()
		if err := b.flushBatch(batch); err != nil {
			log.Printf("history flush error (inline): %v", err)
		}
	}
}

// flushWorker processes batches from the flush channel.
func (b *InsertBuffer) flushWorker() {
	defer b.wg.Done()
	for batch := range b.flushChan {
		if err := b.flushBatch(batch); err != nil {
			log.Printf("history flush error: %v", err)
		}
	}
}

// Add queues a dispatch for batch insertion. This never blocks on database IO.
func (b *InsertBuffer) Add(d *model.Dispatch) {
	if d.EventID == "" {
		d.EventID = nextEventID()
	}

	seq := uint64(0)
	if b.journal != nil {
		var err error
		for attempt := 0; attempt < journalAppendAttempts; attempt++ {
			if seq, err = b.journal.Append(d); err == nil {
				break
			}
		}
		if err != nil {
			// The dispatch still reaches the store through the flush
			// path; it just will not survive a crash before that.
			log.Printf("history: journal append failed, continuing unjournaled: %v", err)
			seq = 0
		}
	}

	b.mu.Lock()
	b.pending = append(b.pending, journaledDispatch{
		seq:      seq,
		dispatch: d,
	})
	shouldFlush := len(b.pending) >= b.maxBatch
	var batch []journaledDispatch
	if shouldFlush {
		batch = b.pending
		b.pending = make([]journaledDispatch, 0, b.maxBatch)
	}
	b.mu.Unlock()

	if shouldFlush {
		select {
		case b.flushChan <- batch:
		default:
			b.logBackpressure()
			if err := b.flushBatch(batch); err != nil {
				log.Printf("history flush error (overflow-inline): %v", err)
			}
		}
	}
}

// Stop flushes remaining dispatches and waits for all writes to complete.
func (b *InsertBuffer) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)
		// Wait for tickLoop to finish its final drain before closing flushChan,
		// ensuring all pending dispatches are sent to the flush channel.
		b.tickWg.Wait()
		close(b.flushChan)
		b.wg.Wait()
		if b.journal != nil {
			if err := b.journal.Close(); err != nil {
				log.Printf("history: journal close error: %v", err)
			}
		}
	})
}

func (b *InsertBuffer) flushBatch(batch []journaledDispatch) error {
	if len(batch) == 0 {
		return nil
	}

	dispatches := make([]*model.Dispatch, 0, len(batch))
	for _, item := range batch {
		dispatches = append(dispatches, item.dispatch)
	}

	if err := b.writer.InsertDispatchBatch(dispatches); err != nil {
		return err
	}

	if b.journal != nil {
		maxSeq := uint64(0)
		for _, item := range batch {
			if item.seq > maxSeq {
				maxSeq = item.seq
			}
		}
		if maxSeq > 0 {
			if err := b.journal.Commit(maxSeq); err != nil {
				return fmt.Errorf("journal commit seq=%d: %w", maxSeq, err)
			}
		}
	}
	return nil
}

// InsertDispatchBatch appends a batch of dispatches in a single
// transaction. If any individual row fails, the batch is rolled back
// and retried row-by-row to salvage as much as possible.
func (s *Store) InsertDispatchBatch(dispatches []*model.Dispatch) error {
	if len(dispatches) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.QueryTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.insertBatchTx(ctx, dispatches)
	if err == nil {
		return nil
	}

	var failed int
	for _, d := range dispatches {
		if rerr := s.insertBatchTx(ctx, []*model.Dispatch{d}); rerr != nil {
			failed++
			log.Printf("history: dropping dispatch (identity=%s): %v", d.Identity, rerr)
		}
	}
	if failed > 0 {
		log.Printf("history: batch partially failed, %d/%d dispatches dropped", failed, len(dispatches))
	}
	return nil
}

// insertBatchTx inserts dispatches in a single transaction.
func (s *Store) insertBatchTx(ctx context.Context, dispatches []*model.Dispatch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO dispatches (event_id, timestamp, identity, source, tier, title, mode, replay_interval_ms, one_shot) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, d := range dispatches {
		eventID := d.EventID
		if eventID == "" {
			eventID = nextEventID()
		}

		if _, err := stmt.ExecContext(
			ctx,
			eventID, d.Timestamp, d.Identity, d.Source.String(),
			d.Tier.String(), d.Title, d.Mode.String(),
			d.ReplayInterval.Milliseconds(), d.OneShot,
		); err != nil {
			return fmt.Errorf("dispatch insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func nextEventID() string {
	n := eventIDCounter.Add(1)
	return fmt.Sprintf("%x-%x", time.Now().UTC().UnixNano(), n)
}
