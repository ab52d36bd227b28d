package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/shackmatrix/marquee/internal/model"
)

func TestMarqueePanelWaiting(t *testing.T) {
	p := NewMarqueePanel()
	out := p.Render(80, marqueePaneHeight)
	if !strings.Contains(out, "waiting for scheduler") {
		t.Fatalf("empty panel output = %q", out)
	}
}

func TestMarqueePanelTakeover(t *testing.T) {
	p := NewMarqueePanel()
	p.SetSnapshot(&model.Snapshot{
		Mode:  model.ModeTakeover,
		Phase: model.PhaseHold,
		Alert: &model.AlertEvent{
			Source:   model.SourceWeather,
			Tier:     model.TierCritical,
			Identity: "NWS-KOUN-TOR-001",
			Title:    "Tornado Warning",
		},
		At: time.Now(),
	})

	out := p.Render(80, marqueePaneHeight)
	if !strings.Contains(out, "»»» TORNADO WARNING «««") {
		t.Errorf("takeover banner missing: %q", out)
	}
	if !strings.Contains(out, "until cleared") {
		t.Errorf("indefinite hold marker missing: %q", out)
	}
	if !strings.Contains(out, "NWS-KOUN-TOR-001") {
		t.Errorf("identity missing: %q", out)
	}
}

func TestMarqueePanelTakeoverCountdown(t *testing.T) {
	p := NewMarqueePanel()
	p.SetSnapshot(&model.Snapshot{
		Mode:        model.ModeTakeover,
		Phase:       model.PhaseHold,
		MsRemaining: 12500,
		Alert: &model.AlertEvent{
			Source:   model.SourceRareDX,
			Tier:     model.TierCritical,
			Identity: "dx:P5DX:20m",
			Title:    "P5DX on 20m",
		},
	})

	out := p.Render(80, marqueePaneHeight)
	if !strings.Contains(out, "12.5s") {
		t.Errorf("countdown missing: %q", out)
	}
}

func TestMarqueePanelRotationWithContest(t *testing.T) {
	p := NewMarqueePanel()
	p.SetSnapshot(&model.Snapshot{
		Mode:          model.ModeRotating,
		CardID:        "band-conditions",
		Cursor:        2,
		ContestActive: true,
		ContestName:   "CQ WW SSB",
	})

	out := p.Render(80, marqueePaneHeight)
	if !strings.Contains(out, "band-conditions") {
		t.Errorf("card missing: %q", out)
	}
	if !strings.Contains(out, "ON THE AIR") || !strings.Contains(out, "CQ WW SSB") {
		t.Errorf("contest badge missing: %q", out)
	}
}

func TestMarqueePanelInsert(t *testing.T) {
	p := NewMarqueePanel()
	p.SetSnapshot(&model.Snapshot{
		Mode:   model.ModeRotatingWithInsert,
		CardID: "insert:dx:EZ8AA:40m",
		Alert: &model.AlertEvent{
			Source:   model.SourceRareDX,
			Tier:     model.TierUrgent,
			Identity: "dx:EZ8AA:40m",
			Title:    "EZ8AA on 40m",
		},
	})

	out := p.Render(80, marqueePaneHeight)
	if !strings.Contains(out, "EZ8AA on 40m") {
		t.Errorf("insert headline missing: %q", out)
	}
}

func TestChevronBannerTruncates(t *testing.T) {
	got := chevronBanner("a very long headline that cannot possibly fit", 20)
	if len([]rune(got)) > 20 {
		t.Fatalf("banner too wide: %q", got)
	}
}
