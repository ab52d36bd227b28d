package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
)

// TierChartPanel displays hourly dispatch counts as a stacked bar chart,
// one bar per hour, stacked by tier.
type TierChartPanel struct {
	data    []HourPoint
	summary *Summary
}

func NewTierChartPanel() *TierChartPanel {
	return &TierChartPanel{}
}

func (p *TierChartPanel) SetData(hours []HourPoint, summary *Summary) {
	p.data = append([]HourPoint(nil), hours...)
	p.summary = summary
}

// Render draws the chart pane at the given outer width and height.
func (p *TierChartPanel) Render(width, height int) string {
	title := paneTitleStyle.Render(p.headerText(width - 4))

	var content string
	if len(p.data) > 0 {
		content = p.renderContent(width-4, height-4)
	} else {
		content = helpStyle.Render("No dispatch activity yet")
	}

	return sectionStyle.Width(width - 2).Height(height - 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (p *TierChartPanel) headerText(width int) string {
	left := "Dispatches by hour"
	if p.summary == nil {
		return left
	}
	right := fmt.Sprintf("Total: %d", p.summary.Total)
	spacer := width - len(left) - len(right)
	if spacer <= 0 {
		return left
	}
	return left + strings.Repeat(" ", spacer) + right
}

func (p *TierChartPanel) renderContent(width, chartHeight int) string {
	if chartHeight < 3 {
		chartHeight = 3
	}

	legendWidth := 18
	chartWidth := width - legendWidth - 2
	if chartWidth < 20 {
		chartWidth = 20
	}

	maxBars := chartWidth / 2
	data := p.data
	if len(data) > maxBars {
		data = data[len(data)-maxBars:]
	}

	bc := barchart.New(chartWidth, chartHeight,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(1),
		barchart.WithNoAxis(),
	)

	barStyles := map[string]lipgloss.Style{}
	for tier, c := range tierColors {
		barStyles[tier] = lipgloss.NewStyle().Foreground(c).Background(c)
	}

	for _, hp := range data {
		var values []barchart.BarValue
		for _, seg := range []struct {
			tier  string
			count int64
		}{
			{"INFO", hp.Info},
			{"URGENT", hp.Urgent},
			{"CRITICAL", hp.Critical},
		} {
			if seg.count > 0 {
				values = append(values, barchart.BarValue{
					Name:  seg.tier,
					Value: float64(seg.count),
					Style: barStyles[seg.tier],
				})
			}
		}
		if len(values) == 0 {
			values = append(values, barchart.BarValue{Name: "EMPTY", Value: 0})
		}
		bc.Push(barchart.BarData{Label: "", Values: values})
	}

	bc.Draw()

	legend := p.renderLegend(chartHeight)
	return joinColumns(bc.View(), legend, chartWidth, chartHeight)
}

func (p *TierChartPanel) renderLegend(height int) string {
	var critical, urgent, info int64
	for _, hp := range p.data {
		critical += hp.Critical
		urgent += hp.Urgent
		info += hp.Info
	}

	rows := []struct {
		name  string
		count int64
	}{
		{"CRITICAL", critical},
		{"URGENT", urgent},
		{"INFO", info},
	}

	var lines []string
	for _, row := range rows {
		lines = append(lines, tierStyle(row.name).Render(fmt.Sprintf("%-9s:%6d", row.name, row.count)))
	}
	lines = append(lines, helpStyle.Render(strings.Repeat("─", 16)))
	lines = append(lines, fmt.Sprintf("%-9s:%6d", "TOTAL", critical+urgent+info))

	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// joinColumns places a legend to the right of chart output, padding both
// blocks to a common height.
func joinColumns(chart, legend string, chartWidth, height int) string {
	chartLines := strings.Split(chart, "\n")
	legendLines := strings.Split(legend, "\n")

	var out []string
	for i := 0; i < height; i++ {
		var cl, ll string
		if i < len(chartLines) {
			cl = chartLines[i]
		}
		if i < len(legendLines) {
			ll = legendLines[i]
		}
		if w := lipgloss.Width(cl); w < chartWidth {
			cl += strings.Repeat(" ", chartWidth-w)
		}
		out = append(out, cl+"  "+ll)
	}
	return strings.Join(out, "\n")
}
