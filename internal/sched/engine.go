package sched

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/shackmatrix/marquee/internal/model"
)

// Config holds scheduler tunables. Zero values fall back to the shared
// defaults.
type Config struct {
	EnterDuration       time.Duration
	ExitDuration        time.Duration
	JackpotHold         time.Duration
	InsertDwell         time.Duration
	UrgentWeatherReplay time.Duration
	JackpotReplay       time.Duration
	CooldownHorizon     time.Duration
}

func (c *Config) withDefaults() {
	if c.JackpotHold <= 0 {
		c.JackpotHold = model.DefaultJackpotHold
	}
	if c.InsertDwell <= 0 {
		c.InsertDwell = model.DefaultJackpotHold
	}
}

// maxEventBurst caps how many ready events one batch drains, so a
// chatty feed cannot starve the phase timer.
const maxEventBurst = 64

// Sink receives every dispatched alert, for journaling and history.
// Implementations must not block: the engine calls this from the
// scheduler worker.
type Sink interface {
	RecordDispatch(d *model.Dispatch)
}

// Engine is the scheduler worker. It is the only writer of display
// state, cooldown records, and the rotation cursor: the event queue
// serializes every transition, so none of the components it drives
// carry locks. Readers get immutable snapshots through an atomic
// pointer and never block the worker.
type Engine struct {
	cfg       Config
	rotation  *Rotation
	takeovers *TakeoverController
	cooldowns *Tracker
	arbiter   *Arbiter
	sink      Sink

	snapshot atomic.Pointer[model.Snapshot]
	seq      uint64
}

// New builds an engine over the configured deck. Fails with
// ErrNoEnabledCards when the deck leaves nothing to rotate.
func New(cards []*model.ViewCard, cfg Config, sink Sink) (*Engine, error) {
	cfg.withDefaults()
	now := time.Now()

	rotation, err := NewRotation(cards, now)
	if err != nil {
		return nil, fmt.Errorf("sched: %w", err)
	}

	e := &Engine{
		cfg:       cfg,
		rotation:  rotation,
		takeovers: NewTakeoverController(cfg.EnterDuration, cfg.ExitDuration),
		cooldowns: NewTracker(cfg.CooldownHorizon),
		arbiter:   NewArbiter(cfg.UrgentWeatherReplay, cfg.JackpotReplay),
		sink:      sink,
	}
	e.publish(now)
	return e, nil
}

// RestoreCooldown rehydrates one cooldown record from the dispatch
// journal before the engine starts.
func (e *Engine) RestoreCooldown(rec model.CooldownRecord) {
	e.cooldowns.Restore(rec)
}

// Snapshot returns the latest published display state.
func (e *Engine) Snapshot() *model.Snapshot {
	return e.snapshot.Load()
}

// Run drains the multiplexed feed queue and the timer for the next
// pending deadline. It blocks only on those two things; all I/O lives
// in the feed adapters. Returns when ctx is done or events closes.
func (e *Engine) Run(ctx context.Context, events <-chan model.FeedEvent) error {
	for {
		var timerC <-chan time.Time
		var timer *time.Timer
		if deadline := e.nextDeadline(); !deadline.IsZero() {
			wait := time.Until(deadline)
			if wait < 0 {
				wait = 0
			}
			timer = time.NewTimer(wait)
			timerC = timer.C
		}

		select {
		case <-ctx.Done():
			stopTimer(timer)
			return nil
		case fe, ok := <-events:
			stopTimer(timer)
			if !ok {
				return nil
			}
			batch := []model.FeedEvent{fe}
		drain:
			for len(batch) < maxEventBurst {
				select {
				case next, more := <-events:
					if !more {
						break drain
					}
					batch = append(batch, next)
				default:
					break drain
				}
			}
			e.HandleBatch(batch, time.Now())
		case now := <-timerC:
			e.Tick(now)
		}
	}
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}

// Handle processes one queued feed event. Exported with an explicit
// clock so transitions are deterministic under test.
func (e *Engine) Handle(fe model.FeedEvent, now time.Time) {
	e.HandleBatch([]model.FeedEvent{fe}, now)
}

// HandleBatch processes a burst of events that became ready together.
// Contest toggles and clears apply in queue order; the remaining
// alerts dispatch in arbitration order, so a weather warning beats a
// jackpot from the same burst whatever their queue positions.
func (e *Engine) HandleBatch(batch []model.FeedEvent, now time.Time) {
	var alerts []*model.AlertEvent
	for _, fe := range batch {
		switch {
		case fe.Contest != nil:
			e.rotation.SetContest(fe.Contest)
		case fe.Alert != nil && fe.Alert.Clear:
			e.handleClear(fe.Alert, now)
		case fe.Alert != nil:
			e.seq++
			fe.Alert.Seq = e.seq
			if fe.Alert.ArrivedAt.IsZero() {
				fe.Alert.ArrivedAt = now
			}
			alerts = append(alerts, fe.Alert)
		}
	}

	for len(alerts) > 0 {
		ev := e.arbiter.Select(alerts)
		if ev == nil {
			break
		}
		e.dispatchAlert(ev, now)
		rest := alerts[:0]
		for _, a := range alerts {
			if a != ev {
				rest = append(rest, a)
			}
		}
		alerts = rest
	}

	e.publish(now)
}

// Tick processes a timer deadline: a rotation dwell expiry or a
// takeover phase edge.
func (e *Engine) Tick(now time.Time) {
	if e.takeovers.Active() != nil {
		if done := e.takeovers.Tick(now); done {
			if next := e.nextPendingTakeover(now); next != nil {
				e.beginTakeover(next, now)
			} else {
				// Resume from the frozen cursor: one normal advance,
				// landing on any insert spliced during the takeover.
				e.rotation.Advance(now)
			}
		}
	} else {
		e.rotation.Tick(now)
	}
	e.cooldowns.GC(now)
	e.publish(now)
}

func (e *Engine) dispatchAlert(ev *model.AlertEvent, now time.Time) {
	switch ev.Tier {
	case model.TierCritical:
		e.handleCritical(ev, now)
	case model.TierUrgent:
		e.handleUrgent(ev, now)
	default:
		// INFO alerts are ordinary card content, never scheduler events.
	}
}

func (e *Engine) handleCritical(ev *model.AlertEvent, now time.Time) {
	if !e.cooldowns.IsEligible(ev.Identity, now) {
		return
	}
	if active := e.takeovers.Active(); active != nil {
		// The first CRITICAL alert holds the floor. A re-report of the
		// same identity supersedes silently; anything else queues and
		// takes the display the moment the current EXIT completes.
		if active.Alert.Identity == ev.Identity {
			return
		}
		e.takeovers.Queue(ev)
		return
	}
	e.beginTakeover(ev, now)
}

func (e *Engine) handleUrgent(ev *model.AlertEvent, now time.Time) {
	if !e.cooldowns.IsEligible(ev.Identity, now) {
		return
	}
	card := &model.ViewCard{
		ID:       "insert:" + ev.Identity,
		Category: model.CardInsert,
		Dwell:    e.cfg.InsertDwell,
		Enabled:  true,
		Alert:    ev,
	}
	e.rotation.Insert(card)
	e.stampAndRecord(ev, model.ModeRotatingWithInsert, now)
}

func (e *Engine) handleClear(ev *model.AlertEvent, now time.Time) {
	existed := e.cooldowns.Clear(ev.Identity)
	e.takeovers.DropPending(ev.Identity)
	ended := e.takeovers.RequestClear(ev.Identity, now)
	if !existed && !ended {
		log.Printf("sched: %v (identity=%s)", model.ErrUnknownIdentity, ev.Identity)
	}
}

func (e *Engine) beginTakeover(ev *model.AlertEvent, now time.Time) {
	hold := time.Duration(0) // weather warnings hold until clear or expiry
	if ev.Source == model.SourceRareDX {
		hold = e.cfg.JackpotHold
	}
	e.takeovers.Begin(ev, now, hold)
	e.stampAndRecord(ev, model.ModeTakeover, now)
}

// nextPendingTakeover pops queued CRITICAL alerts until one is still
// eligible. Entries cleared while waiting were already dropped.
func (e *Engine) nextPendingTakeover(now time.Time) *model.AlertEvent {
	for {
		next := e.takeovers.PopPending()
		if next == nil {
			return nil
		}
		if e.cooldowns.IsEligible(next.Identity, now) {
			return next
		}
	}
}

func (e *Engine) stampAndRecord(ev *model.AlertEvent, mode model.DisplayMode, now time.Time) {
	interval, oneShot := e.arbiter.Policy(ev)
	e.cooldowns.Stamp(ev.Identity, now, interval, oneShot)
	if e.sink != nil {
		e.sink.RecordDispatch(&model.Dispatch{
			Timestamp:      now,
			Identity:       ev.Identity,
			Source:         ev.Source,
			Tier:           ev.Tier,
			Title:          ev.Title,
			Mode:           mode,
			ReplayInterval: interval,
			OneShot:        oneShot,
		})
	}
}

func (e *Engine) nextDeadline() time.Time {
	if e.takeovers.Active() != nil {
		return e.takeovers.Deadline()
	}
	return e.rotation.DwellDeadline()
}

func (e *Engine) publish(now time.Time) {
	contestActive, contestName := e.rotation.ContestActive()
	snap := &model.Snapshot{
		Cursor:        e.rotation.Cursor(),
		ContestActive: contestActive,
		ContestName:   contestName,
		At:            now,
	}

	if t := e.takeovers.Active(); t != nil {
		snap.Mode = model.ModeTakeover
		snap.Alert = t.Alert
		snap.Phase = t.Phase
		if !t.PhaseUntil.IsZero() {
			snap.MsRemaining = msUntil(t.PhaseUntil, now)
		}
	} else {
		card := e.rotation.Active()
		snap.CardID = card.ID
		if card.Category == model.CardInsert {
			snap.Mode = model.ModeRotatingWithInsert
			snap.Alert = card.Alert
		} else {
			snap.Mode = model.ModeRotating
		}
		snap.MsRemaining = msUntil(e.rotation.DwellDeadline(), now)
	}

	e.snapshot.Store(snap)
}

func msUntil(deadline, now time.Time) int64 {
	ms := deadline.Sub(now).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}
