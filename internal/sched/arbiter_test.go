package sched

import (
	"testing"
	"time"

	"github.com/shackmatrix/marquee/internal/model"
)

func TestArbiterSelectTierWins(t *testing.T) {
	a := NewArbiter(0, 0)
	now := time.Now()

	urgent := &model.AlertEvent{Tier: model.TierUrgent, Source: model.SourceWeather, Identity: "u", ArrivedAt: now, Seq: 1}
	crit := &model.AlertEvent{Tier: model.TierCritical, Source: model.SourceRareDX, Identity: "c", ArrivedAt: now.Add(time.Second), Seq: 2}

	if got := a.Select([]*model.AlertEvent{urgent, crit}); got != crit {
		t.Fatalf("Select: got %s, want the CRITICAL alert", got.Identity)
	}
}

func TestArbiterSelectEarlierArrivalWins(t *testing.T) {
	a := NewArbiter(0, 0)
	now := time.Now()

	late := &model.AlertEvent{Tier: model.TierCritical, Source: model.SourceWeather, Identity: "late", ArrivedAt: now.Add(time.Second), Seq: 1}
	early := &model.AlertEvent{Tier: model.TierCritical, Source: model.SourceRareDX, Identity: "early", ArrivedAt: now, Seq: 2}

	if got := a.Select([]*model.AlertEvent{late, early}); got != early {
		t.Fatalf("Select: got %s, want the earlier arrival", got.Identity)
	}
}

func TestArbiterSelectWeatherBeatsRareDX(t *testing.T) {
	a := NewArbiter(0, 0)
	now := time.Now()

	dx := &model.AlertEvent{Tier: model.TierCritical, Source: model.SourceRareDX, Identity: "P5DX#3", ArrivedAt: now, Seq: 1}
	wx := &model.AlertEvent{Tier: model.TierCritical, Source: model.SourceWeather, Identity: "NWS-KOUN-TOR-001", ArrivedAt: now, Seq: 2}

	if got := a.Select([]*model.AlertEvent{dx, wx}); got != wx {
		t.Fatalf("Select: got %s, want weather on the tie", got.Identity)
	}
	// Same result regardless of input order.
	if got := a.Select([]*model.AlertEvent{wx, dx}); got != wx {
		t.Fatalf("Select: order-dependent result")
	}
}

func TestArbiterSelectSeqBreaksFinalTie(t *testing.T) {
	a := NewArbiter(0, 0)
	now := time.Now()

	first := &model.AlertEvent{Tier: model.TierCritical, Source: model.SourceWeather, Identity: "a", ArrivedAt: now, Seq: 1}
	second := &model.AlertEvent{Tier: model.TierCritical, Source: model.SourceWeather, Identity: "b", ArrivedAt: now, Seq: 2}

	if got := a.Select([]*model.AlertEvent{second, first}); got != first {
		t.Fatalf("Select: got %s, want the lower sequence number", got.Identity)
	}
}

func TestArbiterSelectSkipsClears(t *testing.T) {
	a := NewArbiter(0, 0)
	clear := &model.AlertEvent{Tier: model.TierCritical, Identity: "x", Clear: true}
	if a.Select([]*model.AlertEvent{clear, nil}) != nil {
		t.Fatalf("Select: clears and nils must not win")
	}
}

func TestArbiterPolicy(t *testing.T) {
	a := NewArbiter(30*time.Minute, 4*time.Hour)

	cases := []struct {
		name     string
		ev       *model.AlertEvent
		interval time.Duration
		oneShot  bool
	}{
		{"jackpot", &model.AlertEvent{Tier: model.TierCritical, Source: model.SourceRareDX}, 4 * time.Hour, false},
		{"tornado", &model.AlertEvent{Tier: model.TierCritical, Source: model.SourceWeather}, 0, true},
		{"urgent weather", &model.AlertEvent{Tier: model.TierUrgent, Source: model.SourceWeather}, 30 * time.Minute, false},
		{"top50 spot", &model.AlertEvent{Tier: model.TierUrgent, Source: model.SourceRareDX}, 0, true},
	}
	for _, tc := range cases {
		interval, oneShot := a.Policy(tc.ev)
		if interval != tc.interval || oneShot != tc.oneShot {
			t.Fatalf("Policy(%s): got (%v, %v), want (%v, %v)",
				tc.name, interval, oneShot, tc.interval, tc.oneShot)
		}
	}
}
