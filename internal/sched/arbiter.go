package sched

import (
	"time"

	"github.com/shackmatrix/marquee/internal/model"
)

// Arbiter selects which eligible alert takes effect next and decides
// its replay policy. All inputs have already passed cooldown filtering.
type Arbiter struct {
	urgentWeatherReplay time.Duration
	jackpotReplay       time.Duration
}

// NewArbiter creates an arbiter with the configured replay intervals.
func NewArbiter(urgentWeatherReplay, jackpotReplay time.Duration) *Arbiter {
	if urgentWeatherReplay <= 0 {
		urgentWeatherReplay = model.DefaultUrgentWeatherReplay
	}
	if jackpotReplay <= 0 {
		jackpotReplay = model.DefaultJackpotReplay
	}
	return &Arbiter{
		urgentWeatherReplay: urgentWeatherReplay,
		jackpotReplay:       jackpotReplay,
	}
}

// Select picks the winner among simultaneously eligible alerts:
// highest tier, then earliest arrival, then weather over rare-dx, then
// queue order.
func (a *Arbiter) Select(alerts []*model.AlertEvent) *model.AlertEvent {
	var best *model.AlertEvent
	for _, ev := range alerts {
		if ev == nil || ev.Clear {
			continue
		}
		if best == nil || higherPriority(ev, best) {
			best = ev
		}
	}
	return best
}

// higherPriority reports whether a outranks b.
func higherPriority(a, b *model.AlertEvent) bool {
	if a.Tier != b.Tier {
		return a.Tier > b.Tier
	}
	if !a.ArrivedAt.Equal(b.ArrivedAt) {
		return a.ArrivedAt.Before(b.ArrivedAt)
	}
	if a.Source != b.Source {
		return a.Source.TiePrecedence() < b.Source.TiePrecedence()
	}
	return a.Seq < b.Seq
}

// Policy returns the replay interval and one-shot flag to stamp after
// dispatching ev. CRITICAL weather is one-shot while active: its clear
// deletes the record, so a re-issued warning fires again.
func (a *Arbiter) Policy(ev *model.AlertEvent) (time.Duration, bool) {
	switch {
	case ev.Tier == model.TierCritical && ev.Source == model.SourceRareDX:
		return a.jackpotReplay, false
	case ev.Tier == model.TierCritical:
		return 0, true
	case ev.Tier == model.TierUrgent && ev.Source == model.SourceWeather:
		return a.urgentWeatherReplay, false
	default:
		return 0, true
	}
}
