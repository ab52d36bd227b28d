package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/shackmatrix/marquee/internal/model"
)

const (
	defaultRefreshInterval = 2 * time.Second
	minRefreshInterval     = 500 * time.Millisecond
	maxRefreshInterval     = 30 * time.Second
	defaultRecentLimit     = 200
	fetchTimeout           = 5 * time.Second

	marqueePaneHeight = 6
	chartPaneHeight   = 11
	hourlyWindow      = 24 * time.Hour
)

type tickMsg time.Time

// dataMsg carries one poll cycle's results. Partial data is kept when a
// single endpoint fails.
type dataMsg struct {
	snap       *model.Snapshot
	dispatches []model.Dispatch
	summary    *Summary
	hourly     []HourPoint
	err        error
}

// DashboardModel is the single-page marquee dashboard: display preview on
// top, dispatch log in the middle, hourly tier chart at the bottom.
type DashboardModel struct {
	source   DataSource
	keys     KeyMap
	interval time.Duration
	limit    int

	width  int
	height int
	ready  bool

	paused    bool
	showHelp  bool
	lastErr   error
	fetchedAt time.Time

	marquee    *MarqueePanel
	chart      *TierChartPanel
	dispatches []model.Dispatch
	log        viewport.Model
	followTail bool
}

// NewDashboardModel creates the dashboard page polling source every interval.
func NewDashboardModel(source DataSource, interval time.Duration, limit int) *DashboardModel {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	return &DashboardModel{
		source:     source,
		keys:       DefaultKeyMap(),
		interval:   interval,
		limit:      limit,
		marquee:    NewMarqueePanel(),
		chart:      NewTierChartPanel(),
		followTail: true,
	}
}

func (m *DashboardModel) ID() string { return "dashboard" }

func (m *DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), m.tickCmd())
}

func (m *DashboardModel) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *DashboardModel) fetchCmd() tea.Cmd {
	source := m.source
	limit := m.limit
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		var msg dataMsg
		var err error
		if msg.snap, err = source.State(ctx); err != nil {
			msg.err = err
		}
		if msg.dispatches, err = source.Recent(ctx, limit); err != nil && msg.err == nil {
			msg.err = err
		}
		if msg.summary, err = source.Summary(ctx); err != nil && msg.err == nil {
			msg.err = err
		}
		if msg.hourly, err = source.Hourly(ctx, hourlyWindow); err != nil && msg.err == nil {
			msg.err = err
		}
		return msg
	}
}

func (m *DashboardModel) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLog()
		return nil, nil

	case tickMsg:
		if m.paused {
			return m.tickCmd(), nil
		}
		return tea.Batch(m.tickCmd(), m.fetchCmd()), nil

	case dataMsg:
		m.applyData(msg)
		return nil, nil

	case tea.KeyMsg:
		return m.handleKey(msg), nil
	}

	var cmd tea.Cmd
	m.log, cmd = m.log.Update(msg)
	return cmd, nil
}

func (m *DashboardModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.ForceQuit):
		return tea.Quit
	case key.Matches(msg, m.keys.Quit):
		if m.showHelp {
			m.showHelp = false
			return nil
		}
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
	case key.Matches(msg, m.keys.Escape):
		m.showHelp = false
	case key.Matches(msg, m.keys.Refresh):
		return m.fetchCmd()
	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
	case key.Matches(msg, m.keys.IntervalUp):
		m.interval = m.interval / 2
		if m.interval < minRefreshInterval {
			m.interval = minRefreshInterval
		}
	case key.Matches(msg, m.keys.IntervalDown):
		m.interval = m.interval * 2
		if m.interval > maxRefreshInterval {
			m.interval = maxRefreshInterval
		}
	case key.Matches(msg, m.keys.Up):
		m.log.LineUp(1)
		m.followTail = m.log.AtBottom()
	case key.Matches(msg, m.keys.Down):
		m.log.LineDown(1)
		m.followTail = m.log.AtBottom()
	case key.Matches(msg, m.keys.PageUp):
		m.log.ViewUp()
		m.followTail = m.log.AtBottom()
	case key.Matches(msg, m.keys.PageDown):
		m.log.ViewDown()
		m.followTail = m.log.AtBottom()
	case key.Matches(msg, m.keys.Home):
		m.log.GotoTop()
		m.followTail = false
	case key.Matches(msg, m.keys.End):
		m.log.GotoBottom()
		m.followTail = true
	}
	return nil
}

func (m *DashboardModel) applyData(msg dataMsg) {
	m.lastErr = msg.err
	m.fetchedAt = time.Now()

	if msg.snap != nil {
		m.marquee.SetSnapshot(msg.snap)
	}
	if msg.dispatches != nil {
		m.dispatches = msg.dispatches
		m.log.SetContent(m.renderDispatchLines())
		if m.followTail {
			m.log.GotoBottom()
		}
	}
	if msg.hourly != nil || msg.summary != nil {
		m.chart.SetData(msg.hourly, msg.summary)
	}
}

func (m *DashboardModel) logPaneHeight() int {
	h := m.height - marqueePaneHeight - chartPaneHeight - 1
	if h < 5 {
		h = 5
	}
	return h
}

func (m *DashboardModel) resizeLog() {
	w := m.width - 4
	h := m.logPaneHeight() - 3
	if w < 20 {
		w = 20
	}
	if h < 1 {
		h = 1
	}
	if !m.ready {
		m.log = viewport.New(w, h)
		m.ready = true
		m.log.SetContent(m.renderDispatchLines())
		m.log.GotoBottom()
		return
	}
	m.log.Width = w
	m.log.Height = h
}

func (m *DashboardModel) renderDispatchLines() string {
	if len(m.dispatches) == 0 {
		return helpStyle.Render("No dispatches recorded yet")
	}
	lines := make([]string, 0, len(m.dispatches))
	for _, d := range m.dispatches {
		lines = append(lines, renderDispatchLine(d))
	}
	return strings.Join(lines, "\n")
}

func renderDispatchLine(d model.Dispatch) string {
	tier := d.Tier.String()
	line := fmt.Sprintf("%s  %-8s %-8s %-24s %s",
		d.Timestamp.Local().Format("15:04:05"),
		tier,
		d.Source.String(),
		d.Identity,
		d.Title,
	)
	return tierStyle(tier).Render(line)
}

func (m *DashboardModel) View(width, height int) string {
	if width <= 0 || height <= 0 {
		return "Initializing dashboard..."
	}
	if height < 20 || width < 60 {
		return "Terminal too small. Resize to at least 60x20."
	}
	if m.showHelp {
		return m.renderHelp(width, height)
	}

	marqueePane := m.marquee.Render(width, marqueePaneHeight)
	logPane := m.renderLogPane(width)
	chartPane := m.chart.Render(width, chartPaneHeight)
	status := m.renderStatusLine(width)

	return lipgloss.JoinVertical(lipgloss.Left, marqueePane, logPane, chartPane, status)
}

func (m *DashboardModel) renderLogPane(width int) string {
	title := paneTitleStyle.Render(fmt.Sprintf("Dispatch Log (%d)", len(m.dispatches)))
	return sectionStyle.Width(width - 2).Height(m.logPaneHeight() - 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, m.log.View()))
}

func (m *DashboardModel) renderStatusLine(width int) string {
	left := " marquee"
	if m.paused {
		left += " · PAUSED"
	}
	if !m.fetchedAt.IsZero() {
		left += " · updated " + m.fetchedAt.Format("15:04:05")
	}
	if m.lastErr != nil {
		left += " · ERR: " + truncate(m.lastErr.Error(), 40)
	}

	right := fmt.Sprintf("every %s · ?: help · q: quit ", m.interval)

	spacer := width - lipgloss.Width(left) - lipgloss.Width(right)
	if spacer < 1 {
		spacer = 1
	}
	return statusLineStyle.Width(width).Render(left + strings.Repeat(" ", spacer) + right)
}

func (m *DashboardModel) renderHelp(width, height int) string {
	bindings := []key.Binding{
		m.keys.Quit, m.keys.ForceQuit, m.keys.Help, m.keys.Escape,
		m.keys.Up, m.keys.Down, m.keys.PageUp, m.keys.PageDown,
		m.keys.Home, m.keys.End,
		m.keys.Refresh, m.keys.Pause, m.keys.IntervalUp, m.keys.IntervalDown,
	}

	var lines []string
	lines = append(lines, paneTitleStyle.Render("Key Bindings"), "")
	for _, b := range bindings {
		h := b.Help()
		lines = append(lines, fmt.Sprintf("  %-12s %s", h.Key, h.Desc))
	}
	lines = append(lines, "", helpStyle.Render("esc to close"))

	block := strings.Join(lines, "\n")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		sectionStyle.Render(block))
}
