package sched

import (
	"time"

	"github.com/shackmatrix/marquee/internal/model"
)

// Takeover tracks one full-screen preemption through its phases.
// A zero PhaseUntil during HOLD means the hold is indefinite and ends
// only on an explicit clear.
type Takeover struct {
	Alert      *model.AlertEvent
	Phase      model.TakeoverPhase
	PhaseUntil time.Time

	hold           time.Duration // 0 = content-driven (clear or alert expiry)
	clearRequested bool          // clear arrived during ENTER
}

// TakeoverController manages the active takeover and the FIFO queue of
// CRITICAL alerts waiting for the floor. ENTER and EXIT are fixed
// windows that nothing can skip; a queued alert becomes the next
// takeover the instant the current one finishes its EXIT.
type TakeoverController struct {
	enter time.Duration
	exit  time.Duration

	active  *Takeover
	pending []*model.AlertEvent
}

// NewTakeoverController creates a controller with fixed ENTER/EXIT
// animation windows.
func NewTakeoverController(enter, exit time.Duration) *TakeoverController {
	if enter <= 0 {
		enter = model.DefaultEnterDuration
	}
	if exit <= 0 {
		exit = model.DefaultExitDuration
	}
	return &TakeoverController{enter: enter, exit: exit}
}

// Active returns the takeover currently holding the display, or nil.
func (c *TakeoverController) Active() *Takeover { return c.active }

// Begin starts a takeover for alert. hold 0 means hold until clear, or
// until the alert's own expiry when the feed supplied one.
func (c *TakeoverController) Begin(alert *model.AlertEvent, now time.Time, hold time.Duration) {
	c.active = &Takeover{
		Alert:      alert,
		Phase:      model.PhaseEnter,
		PhaseUntil: now.Add(c.enter),
		hold:       hold,
	}
}

// Queue appends a CRITICAL alert to wait for the floor. A queued alert
// with the same identity is superseded in place.
func (c *TakeoverController) Queue(alert *model.AlertEvent) {
	for i, p := range c.pending {
		if p.Identity == alert.Identity {
			c.pending[i] = alert
			return
		}
	}
	c.pending = append(c.pending, alert)
}

// PopPending removes and returns the oldest queued alert, or nil.
func (c *TakeoverController) PopPending() *model.AlertEvent {
	if len(c.pending) == 0 {
		return nil
	}
	next := c.pending[0]
	c.pending = c.pending[1:]
	return next
}

// DropPending removes a queued alert by identity (cleared upstream
// before it ever reached the display).
func (c *TakeoverController) DropPending(identity string) {
	for i, p := range c.pending {
		if p.Identity == identity {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return
		}
	}
}

// PendingCount returns the queue depth.
func (c *TakeoverController) PendingCount() int { return len(c.pending) }

// Deadline returns the next phase edge, or zero during an indefinite
// hold.
func (c *TakeoverController) Deadline() time.Time {
	if c.active == nil {
		return time.Time{}
	}
	return c.active.PhaseUntil
}

// Tick advances the phase machine. It reports true exactly once, when
// the takeover completes its EXIT and the display should return to
// rotation (or to the next queued takeover).
func (c *TakeoverController) Tick(now time.Time) bool {
	t := c.active
	if t == nil {
		return false
	}
	if t.PhaseUntil.IsZero() || now.Before(t.PhaseUntil) {
		return false
	}

	switch t.Phase {
	case model.PhaseEnter:
		if t.clearRequested {
			t.Phase = model.PhaseExit
			t.PhaseUntil = now.Add(c.exit)
			return false
		}
		t.Phase = model.PhaseHold
		t.PhaseUntil = c.holdDeadline(t, now)
		return false
	case model.PhaseHold:
		t.Phase = model.PhaseExit
		t.PhaseUntil = now.Add(c.exit)
		return false
	default: // PhaseExit
		c.active = nil
		return true
	}
}

// RequestClear ends the active takeover's HOLD early. During ENTER the
// animation finishes first and the takeover proceeds straight to EXIT.
func (c *TakeoverController) RequestClear(identity string, now time.Time) bool {
	t := c.active
	if t == nil || t.Alert.Identity != identity {
		return false
	}
	switch t.Phase {
	case model.PhaseEnter:
		t.clearRequested = true
	case model.PhaseHold:
		t.Phase = model.PhaseExit
		t.PhaseUntil = now.Add(c.exit)
	}
	return true
}

func (c *TakeoverController) holdDeadline(t *Takeover, now time.Time) time.Time {
	if t.hold > 0 {
		return now.Add(t.hold)
	}
	if !t.Alert.Expires.IsZero() {
		return t.Alert.Expires
	}
	return time.Time{}
}
