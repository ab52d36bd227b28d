package model

import (
	"fmt"
	"time"
)

// Tier classifies alert severity. Higher values preempt lower ones.
type Tier int

const (
	TierInfo Tier = iota
	TierUrgent
	TierCritical
)

var tierNames = map[Tier]string{
	TierInfo:     "INFO",
	TierUrgent:   "URGENT",
	TierCritical: "CRITICAL",
}

func (t Tier) String() string {
	if s, ok := tierNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

// MarshalText implements encoding.TextMarshaler so tiers serialize as names.
func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText parses a tier name ("CRITICAL", "URGENT", "INFO").
func (t *Tier) UnmarshalText(b []byte) error {
	for tier, name := range tierNames {
		if name == string(b) {
			*t = tier
			return nil
		}
	}
	return fmt.Errorf("unknown tier %q", string(b))
}

// Source identifies which feed produced an alert. The set is closed.
type Source int

const (
	SourceWeather Source = iota
	SourceRareDX
	SourceContest
)

var sourceNames = map[Source]string{
	SourceWeather: "weather",
	SourceRareDX:  "rare-dx",
	SourceContest: "contest",
}

func (s Source) String() string {
	if n, ok := sourceNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Source(%d)", int(s))
}

func (s Source) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Source) UnmarshalText(b []byte) error {
	for src, name := range sourceNames {
		if name == string(b) {
			*s = src
			return nil
		}
	}
	return fmt.Errorf("unknown source %q", string(b))
}

// TiePrecedence orders sources for same-tier, same-arrival conflicts.
// Lower wins. Weather is safety-relevant and always wins a tie.
func (s Source) TiePrecedence() int {
	switch s {
	case SourceWeather:
		return 0
	case SourceRareDX:
		return 1
	default:
		return 2
	}
}

// AlertEvent is the normalized alert shape shared by all feeds.
// Events are immutable once constructed; a new event carrying the same
// Identity supersedes the earlier one rather than duplicating it.
type AlertEvent struct {
	Source    Source            `json:"source"`
	Tier      Tier              `json:"tier"`
	Identity  string            `json:"identity"`
	Title     string            `json:"title"`
	Payload   map[string]string `json:"payload,omitempty"`
	ArrivedAt time.Time         `json:"arrived_at"`
	Expires   time.Time         `json:"expires,omitempty"` // zero = no feed-supplied expiry
	Clear     bool              `json:"clear,omitempty"`   // explicit resolved signal
	Weight    int               `json:"weight,omitempty"`  // intra-feed ordering for critical weather

	// Seq is assigned by the scheduler queue on arrival and defines
	// FIFO tie-breaking across sources.
	Seq uint64 `json:"-"`
}

// ContestStatus toggles the contest card's rendered content. It never
// produces an AlertEvent and never passes through the arbiter.
type ContestStatus struct {
	ContestID string `json:"contest_id"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
}

// FeedEvent is the unit flowing from feed adapters into the scheduler
// queue. Exactly one of Alert or Contest is set.
type FeedEvent struct {
	Feed    string
	Alert   *AlertEvent
	Contest *ContestStatus
}

// CardCategory distinguishes permanent informational cards, the contest
// card, and transient insert cards created by the arbiter.
type CardCategory int

const (
	CardInfo CardCategory = iota
	CardContest
	CardInsert
)

func (c CardCategory) String() string {
	switch c {
	case CardInfo:
		return "info"
	case CardContest:
		return "contest"
	case CardInsert:
		return "insert"
	default:
		return fmt.Sprintf("CardCategory(%d)", int(c))
	}
}

// ViewCard is one entry in the steady-state rotation. Cards are
// constructed at configuration load and never mutated by the scheduler,
// except for insert cards the arbiter creates and destroys.
type ViewCard struct {
	ID       string
	Category CardCategory
	Dwell    time.Duration
	Enabled  bool

	// Eligible reports whether the card currently has something to
	// show. nil means always eligible.
	Eligible func(now time.Time) bool

	// Alert is set on insert cards only.
	Alert *AlertEvent
}

// EligibleAt applies the card's eligibility predicate.
func (c *ViewCard) EligibleAt(now time.Time) bool {
	if c.Eligible == nil {
		return true
	}
	return c.Eligible(now)
}

// DisplayMode is the top-level state of the display.
type DisplayMode int

const (
	ModeRotating DisplayMode = iota
	ModeTakeover
	ModeRotatingWithInsert
)

func (m DisplayMode) String() string {
	switch m {
	case ModeRotating:
		return "ROTATING"
	case ModeTakeover:
		return "TAKEOVER"
	case ModeRotatingWithInsert:
		return "ROTATING_WITH_INSERT"
	default:
		return fmt.Sprintf("DisplayMode(%d)", int(m))
	}
}

func (m DisplayMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *DisplayMode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "ROTATING":
		*m = ModeRotating
	case "TAKEOVER":
		*m = ModeTakeover
	case "ROTATING_WITH_INSERT":
		*m = ModeRotatingWithInsert
	default:
		return fmt.Errorf("unknown display mode %q", string(b))
	}
	return nil
}

// TakeoverPhase is the phase of an active full-screen preemption.
type TakeoverPhase int

const (
	PhaseEnter TakeoverPhase = iota
	PhaseHold
	PhaseExit
)

func (p TakeoverPhase) String() string {
	switch p {
	case PhaseEnter:
		return "ENTER"
	case PhaseHold:
		return "HOLD"
	case PhaseExit:
		return "EXIT"
	default:
		return fmt.Sprintf("TakeoverPhase(%d)", int(p))
	}
}

func (p TakeoverPhase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *TakeoverPhase) UnmarshalText(b []byte) error {
	switch string(b) {
	case "ENTER":
		*p = PhaseEnter
	case "HOLD":
		*p = PhaseHold
	case "EXIT":
		*p = PhaseExit
	default:
		return fmt.Errorf("unknown takeover phase %q", string(b))
	}
	return nil
}

// Snapshot is the read-only view of the display state. The engine
// publishes a fresh immutable snapshot after every transition; readers
// never synchronize with the scheduler worker.
type Snapshot struct {
	Mode          DisplayMode   `json:"mode"`
	CardID        string        `json:"card_id,omitempty"`
	Alert         *AlertEvent   `json:"alert,omitempty"`
	Phase         TakeoverPhase `json:"phase,omitempty"`
	Cursor        int           `json:"cursor"`
	ContestActive bool          `json:"contest_active"`
	ContestName   string        `json:"contest_name,omitempty"`
	MsRemaining   int64         `json:"ms_remaining"` // 0 = no deadline in this phase
	At            time.Time     `json:"at"`
}

// CooldownRecord tracks replay eligibility for one alert identity.
// ReplayInterval 0 together with OneShot means the identity never
// re-fires automatically once shown.
type CooldownRecord struct {
	Identity       string        `json:"identity"`
	LastShown      time.Time     `json:"last_shown"`
	ReplayInterval time.Duration `json:"replay_interval"`
	OneShot        bool          `json:"one_shot"`
}

// Dispatch records one alert taking effect on the display. It is both
// the journal entry replayed to warm cooldowns after a restart and the
// row shape stored in the history database.
type Dispatch struct {
	EventID        string        `json:"event_id,omitempty"`
	Timestamp      time.Time     `json:"timestamp"`
	Identity       string        `json:"identity"`
	Source         Source        `json:"source"`
	Tier           Tier          `json:"tier"`
	Title          string        `json:"title"`
	Mode           DisplayMode   `json:"mode"`
	ReplayInterval time.Duration `json:"replay_interval"`
	OneShot        bool          `json:"one_shot"`
}
