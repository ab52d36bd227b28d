package sched

import (
	"time"

	"github.com/shackmatrix/marquee/internal/model"
)

// Rotation owns the ordered card list, the cursor, and the dwell timer
// for steady-state display ("Vegas mode"). The engine freezes it by
// simply not ticking it while a takeover is active.
type Rotation struct {
	cards      []*model.ViewCard
	cursor     int
	dwellUntil time.Time

	contestActive bool
	contestName   string
}

// NewRotation builds a rotation over the configured deck. Fails with
// ErrNoEnabledCards when nothing is enabled.
func NewRotation(cards []*model.ViewCard, now time.Time) (*Rotation, error) {
	// Insert and Advance reorder the slice in place; the deck keeps
	// its own copy for the HTTP layer.
	owned := make([]*model.ViewCard, len(cards))
	copy(owned, cards)
	r := &Rotation{cards: owned}
	enabled := false
	for _, c := range cards {
		if c.Enabled {
			enabled = true
			break
		}
	}
	if !enabled {
		return nil, model.ErrNoEnabledCards
	}
	r.cursor = r.nextShowable(0, now)
	r.resetDwell(now)
	return r, nil
}

// Active returns the card at the cursor.
func (r *Rotation) Active() *model.ViewCard { return r.cards[r.cursor] }

// Cursor returns the current cursor position.
func (r *Rotation) Cursor() int { return r.cursor }

// DwellDeadline returns when the active card's dwell expires.
func (r *Rotation) DwellDeadline() time.Time { return r.dwellUntil }

// Cards returns the current ordering, including any pending inserts.
func (r *Rotation) Cards() []*model.ViewCard {
	out := make([]*model.ViewCard, len(r.cards))
	copy(out, r.cards)
	return out
}

// Tick advances past an expired dwell. Returns the active card.
func (r *Rotation) Tick(now time.Time) *model.ViewCard {
	if now.Before(r.dwellUntil) {
		return r.Active()
	}
	return r.Advance(now)
}

// Advance moves to the next showable card, removing the current card
// first when it is a one-shot insert that has now had its showing.
func (r *Rotation) Advance(now time.Time) *model.ViewCard {
	if r.Active().Category == model.CardInsert {
		r.cards = append(r.cards[:r.cursor], r.cards[r.cursor+1:]...)
		if r.cursor >= len(r.cards) {
			r.cursor = 0
		}
		r.cursor = r.nextShowable(r.cursor, now)
	} else {
		r.cursor = r.nextShowable((r.cursor+1)%len(r.cards), now)
	}
	r.resetDwell(now)
	return r.Active()
}

// Insert splices a one-shot card immediately after the active card,
// behind any inserts already waiting there, so earlier inserts show
// first and the permanent order is undisturbed.
func (r *Rotation) Insert(card *model.ViewCard) {
	pos := r.cursor + 1
	for pos < len(r.cards) && r.cards[pos].Category == model.CardInsert {
		pos++
	}
	r.cards = append(r.cards, nil)
	copy(r.cards[pos+1:], r.cards[pos:])
	r.cards[pos] = card
}

// SetContest records the contest-active flag consumed by the contest
// card's content resolution.
func (r *Rotation) SetContest(st *model.ContestStatus) {
	r.contestActive = st.Active
	if st.Active {
		r.contestName = st.Name
	} else {
		r.contestName = ""
	}
}

// ContestActive returns the flag and the active contest name.
func (r *Rotation) ContestActive() (bool, string) {
	return r.contestActive, r.contestName
}

// nextShowable scans forward from start (inclusive, wrapping) for an
// enabled, currently-eligible card. When every card is ineligible the
// scan ends back at start; the display keeps the least-stale card
// rather than blanking.
func (r *Rotation) nextShowable(start int, now time.Time) int {
	n := len(r.cards)
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		c := r.cards[idx]
		if !c.Enabled {
			continue
		}
		if c.EligibleAt(now) {
			return idx
		}
	}
	return start % n
}

func (r *Rotation) resetDwell(now time.Time) {
	dwell := r.Active().Dwell
	if dwell <= 0 {
		dwell = model.DefaultDwell
	}
	r.dwellUntil = now.Add(dwell)
}
