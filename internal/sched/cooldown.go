package sched

import (
	"time"

	"github.com/shackmatrix/marquee/internal/model"
)

// Tracker answers "is this alert identity eligible to fire now". It is
// touched only from the scheduler worker, so it needs no locking.
type Tracker struct {
	records map[string]*model.CooldownRecord
	horizon time.Duration
	lastGC  time.Time
}

// NewTracker creates a cooldown tracker. Records idle longer than
// horizon are garbage-collected to bound memory.
func NewTracker(horizon time.Duration) *Tracker {
	if horizon <= 0 {
		horizon = model.DefaultCooldownHorizon
	}
	return &Tracker{
		records: make(map[string]*model.CooldownRecord),
		horizon: horizon,
	}
}

// IsEligible reports whether identity may be dispatched at now.
func (t *Tracker) IsEligible(identity string, now time.Time) bool {
	rec, ok := t.records[identity]
	if !ok {
		return true
	}
	if rec.OneShot {
		return false
	}
	return !now.Before(rec.LastShown.Add(rec.ReplayInterval))
}

// Stamp creates or updates the record for identity after a dispatch.
func (t *Tracker) Stamp(identity string, now time.Time, interval time.Duration, oneShot bool) {
	rec, ok := t.records[identity]
	if !ok {
		rec = &model.CooldownRecord{Identity: identity}
		t.records[identity] = rec
	}
	rec.LastShown = now
	rec.ReplayInterval = interval
	rec.OneShot = oneShot
}

// Clear removes all eligibility restrictions for identity. It reports
// whether a record existed.
func (t *Tracker) Clear(identity string) bool {
	if _, ok := t.records[identity]; !ok {
		return false
	}
	delete(t.records, identity)
	return true
}

// Restore rehydrates one record, used when replaying the dispatch
// journal at startup.
func (t *Tracker) Restore(rec model.CooldownRecord) {
	copied := rec
	t.records[rec.Identity] = &copied
}

// Record returns a copy of the record for identity, or false.
func (t *Tracker) Record(identity string) (model.CooldownRecord, bool) {
	rec, ok := t.records[identity]
	if !ok {
		return model.CooldownRecord{}, false
	}
	return *rec, true
}

// Len returns the number of tracked identities.
func (t *Tracker) Len() int { return len(t.records) }

// GC drops records idle past the horizon. Runs at most once per hour.
func (t *Tracker) GC(now time.Time) {
	if now.Sub(t.lastGC) < time.Hour {
		return
	}
	t.lastGC = now
	for id, rec := range t.records {
		idle := now.Sub(rec.LastShown)
		if idle > t.horizon && idle > rec.ReplayInterval {
			delete(t.records, id)
		}
	}
}
