package watch

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/claude-watch/internal/models"
	"github.com/j-veylop/claude-watch/internal/stats"
	"github.com/j-veylop/claude-watch/internal/ui/styles"
)

const chartHeight = 6

// View renders the dashboard.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("Claude Usage"))
	if m.refreshing {
		b.WriteString(" " + m.spin.View())
	}
	b.WriteString("\n\n")

	if m.snapshot == nil {
		if m.fetchErr != nil {
			b.WriteString(styles.ErrorStyle.Render("Error: "+m.fetchErr.Error()) + "\n")
		} else {
			b.WriteString(styles.MutedStyle.Render("Waiting for first snapshot...") + "\n")
		}
		b.WriteString("\n" + m.footer())
		return m.truncated(b.String())
	}

	b.WriteString(m.usageSection())
	b.WriteString(m.trendSection())
	b.WriteString(m.forecastSection())

	if m.fetchErr != nil {
		b.WriteString(styles.ErrorStyle.Render("Fetch failed: "+m.fetchErr.Error()) + "\n")
		b.WriteString(styles.MutedStyle.Render("Showing last known data") + "\n\n")
	}

	b.WriteString(m.footer())
	return m.truncated(b.String())
}

func (m Model) usageSection() string {
	var b strings.Builder
	s := m.snapshot

	b.WriteString(styles.SectionStyle.Render("Current Usage") + "\n")
	b.WriteString(m.usageRow("Session (5h)", m.sessionBar, s.SessionUtilization(), s.FiveHour.ResetsAt))
	b.WriteString(m.usageRow("Weekly (7d)", m.weeklyBar, s.WeeklyUtilization(), s.SevenDay.ResetsAt))
	if s.SevenDaySonnet != nil {
		b.WriteString(m.usageRow("  Sonnet", m.weeklyBar, s.SevenDaySonnet.Utilization, time.Time{}))
	}
	if s.SevenDayOpus != nil {
		b.WriteString(m.usageRow("  Opus", m.weeklyBar, s.SevenDayOpus.Utilization, time.Time{}))
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) usageRow(label string, bar interface{ ViewAs(float64) string }, percent float64, resetsAt time.Time) string {
	row := fmt.Sprintf("  %s %s %s",
		styles.LabelStyle.Render(fmt.Sprintf("%-13s", label)),
		bar.ViewAs(percent/100),
		styles.PercentStyle(percent).Render(fmt.Sprintf("%5.1f%%", percent)),
	)
	if !resetsAt.IsZero() {
		row += styles.MutedStyle.Render("  resets " + resetsAt.Local().Format("Mon 15:04"))
	}
	return row + "\n"
}

func (m Model) trendSection() string {
	if len(m.series) < 2 {
		return ""
	}

	width := m.width - 12
	if width < 20 {
		width = 20
	}
	if width > 72 {
		width = 72
	}

	values, _ := stats.Downsample(m.series, nil, width)
	graph := asciigraph.Plot(values,
		asciigraph.Height(chartHeight),
		asciigraph.Width(width),
		asciigraph.Caption("session % over last 24h"),
	)

	return styles.SectionStyle.Render("Trend") + "\n" + graph + "\n\n"
}

func (m Model) forecastSection() string {
	if m.forecast == nil {
		return ""
	}
	var b strings.Builder

	b.WriteString(styles.SectionStyle.Render("Forecast") + "\n")

	if session := m.forecast.Session; session != nil {
		b.WriteString(fmt.Sprintf("  %s %s\n",
			styles.LabelStyle.Render("Rate:"),
			styles.ValueStyle.Render(fmt.Sprintf("%.1f%%/hour (%s data)", session.RatePerHour, session.DataQuality))))
		if session.HoursToLimit != nil {
			limit := fmt.Sprintf("%.1fh", *session.HoursToLimit)
			if session.HoursConservative != nil && session.HoursOptimistic != nil {
				limit += fmt.Sprintf(" (range %.1fh - %.1fh)", *session.HoursConservative, *session.HoursOptimistic)
			}
			b.WriteString(fmt.Sprintf("  %s %s\n",
				styles.LabelStyle.Render("Time to limit:"),
				styles.ValueStyle.Render(limit)))
		} else {
			b.WriteString("  " + styles.LabelStyle.Render("Time to limit:") + " " +
				styles.MutedStyle.Render("not projected") + "\n")
		}
	}

	if weekly := m.forecast.Weekly; weekly != nil {
		b.WriteString(fmt.Sprintf("  %s %s\n",
			styles.LabelStyle.Render("7-day projection:"),
			styles.PercentStyle(weekly.WeeklyProjection).Render(fmt.Sprintf("%.0f%%", weekly.WeeklyProjection))))
	}

	for _, rec := range m.forecast.Recommendations {
		icon := "+"
		switch rec.Severity {
		case models.SeverityCritical:
			icon = "!"
		case models.SeverityWarning:
			icon = "*"
		}
		b.WriteString("  " + styles.SeverityStyle(string(rec.Severity)).Render(icon) + " " + rec.Message + "\n")
	}

	b.WriteString("\n")
	return b.String()
}

func (m Model) footer() string {
	parts := []string{"r refresh", "q quit"}
	if !m.lastUpdated.IsZero() {
		parts = append(parts, "updated "+m.lastUpdated.Format("15:04:05"))
	}
	return styles.MutedStyle.Render(strings.Join(parts, " · "))
}

// truncated clips every line to the terminal width.
func (m Model) truncated(s string) string {
	if m.width <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = ansi.Truncate(line, m.width, "…")
	}
	return strings.Join(lines, "\n")
}
