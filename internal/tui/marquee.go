package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/shackmatrix/marquee/internal/model"
)

// MarqueePanel renders a terminal preview of what the physical display is
// showing right now: the rotation card, an insert overlay, or a takeover
// banner with its phase.
type MarqueePanel struct {
	snap *model.Snapshot
}

func NewMarqueePanel() *MarqueePanel {
	return &MarqueePanel{}
}

func (p *MarqueePanel) SetSnapshot(snap *model.Snapshot) {
	p.snap = snap
}

// Render draws the preview pane at the given outer width and height.
func (p *MarqueePanel) Render(width, height int) string {
	inner := width - 4
	if inner < 20 {
		inner = 20
	}

	title := paneTitleStyle.Render("Marquee")
	body := p.renderBody(inner)

	return sectionStyle.Width(width - 2).Height(height - 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, body))
}

func (p *MarqueePanel) renderBody(width int) string {
	snap := p.snap
	if snap == nil {
		return helpStyle.Render("waiting for scheduler...")
	}

	switch snap.Mode {
	case model.ModeTakeover:
		return p.renderTakeover(snap, width)
	case model.ModeRotatingWithInsert:
		return p.renderInsert(snap, width)
	default:
		return p.renderRotation(snap, width)
	}
}

func (p *MarqueePanel) renderTakeover(snap *model.Snapshot, width int) string {
	title := "ALERT"
	tier := model.TierCritical.String()
	if snap.Alert != nil {
		title = snap.Alert.Title
		tier = snap.Alert.Tier.String()
	}

	banner := chevronBanner(title, width)
	bannerLine := takeoverBannerStyle.Foreground(tierColors[tier]).Render(banner)

	phase := snap.Phase.String()
	var phaseLine string
	switch {
	case snap.Phase == model.PhaseHold && snap.MsRemaining == 0:
		phaseLine = fmt.Sprintf("%s · until cleared", phase)
	case snap.MsRemaining > 0:
		phaseLine = fmt.Sprintf("%s · %s", phase, formatMs(snap.MsRemaining))
	default:
		phaseLine = phase
	}

	var identity string
	if snap.Alert != nil {
		identity = fmt.Sprintf("%s  %s", snap.Alert.Source.String(), snap.Alert.Identity)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		bannerLine,
		tierStyle(tier).Render(phaseLine),
		helpStyle.Render(identity),
	)
}

func (p *MarqueePanel) renderInsert(snap *model.Snapshot, width int) string {
	alertLine := "insert"
	tier := model.TierUrgent.String()
	if snap.Alert != nil {
		alertLine = snap.Alert.Title
		tier = snap.Alert.Tier.String()
	}

	lines := []string{
		tierStyle(tier).Bold(true).Render(truncate("▶ "+alertLine, width)),
		fmt.Sprintf("card %s  cursor %d", snap.CardID, snap.Cursor),
	}
	if snap.ContestActive {
		lines = append(lines, contestLine(snap))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (p *MarqueePanel) renderRotation(snap *model.Snapshot, width int) string {
	card := snap.CardID
	if card == "" {
		card = "(no card)"
	}

	lines := []string{
		lipgloss.NewStyle().Bold(true).Render(truncate(card, width)),
		helpStyle.Render(fmt.Sprintf("rotation · cursor %d", snap.Cursor)),
	}
	if snap.ContestActive {
		lines = append(lines, contestLine(snap))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func contestLine(snap *model.Snapshot) string {
	badge := contestBadgeStyle.Render(" ON THE AIR ")
	if snap.ContestName != "" {
		return badge + " " + snap.ContestName
	}
	return badge
}

// chevronBanner frames a headline the way the physical display animates
// takeovers, e.g. "»»» TORNADO WARNING «««".
func chevronBanner(title string, width int) string {
	title = strings.ToUpper(strings.TrimSpace(title))
	framed := "»»» " + title + " «««"
	return truncate(framed, width)
}

func formatMs(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	if d >= time.Second {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dms", ms)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width == 1 {
		return string(r[:1])
	}
	return string(r[:width-1]) + "…"
}
