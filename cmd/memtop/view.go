package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	overlay "github.com/rmhubbert/bubbletea-overlay"
)

// View renders the entire UI
func (m Model) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	// If help is showing, float it over the live dashboard.
	if m.showHelp {
		helpOverlay := overlay.New(
			NewHelpViewModel(&m),
			NewMainViewModel(&m),
			overlay.Center,
			overlay.Center,
			0,
			0,
		)
		return helpOverlay.View()
	}

	return m.renderDashboard()
}

// renderDashboard renders the normal monitor layout.
func (m Model) renderDashboard() string {
	header := m.renderHeader()
	row := []string{m.renderOpsPane(), m.renderMemoryPane()}
	if m.pool != nil {
		row = append(row, m.renderClassPane())
	}
	panes := lipgloss.JoinHorizontal(lipgloss.Top, row...)
	history := m.renderHistoryPane()
	status := m.renderStatus()

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		panes,
		history,
		status,
	)
}

// renderHeader renders the title with the backend name and run state
func (m Model) renderHeader() string {
	title := headerStyle.Render("memtop")
	backend := backendStyle.Render(fmt.Sprintf("backend: %s", m.backendName))

	state := runningStyle.Render("running")
	if m.paused {
		state = pausedStyle.Render("paused")
	}

	return lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", backend, "  ", state)
}

func statLine(label, value string) string {
	return statLabelStyle.Render(label) + statValueStyle.Render(value)
}

func (m Model) renderOpsPane() string {
	s := m.stats
	lines := []string{
		paneTitleStyle.Render("Operations"),
		"",
		statLine("Allocations", humanize.Comma(s.Allocs)),
		statLine("Reallocations", humanize.Comma(s.Reallocs)),
		statLine("Releases", humanize.Comma(s.Releases)),
		statLine("Failed", humanize.Comma(s.Failed)),
		statLine("Rate", fmt.Sprintf("%s ops/s", humanize.Comma(int64(m.rate)))),
	}
	return paneStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderMemoryPane() string {
	s := m.stats
	lines := []string{
		paneTitleStyle.Render("Memory"),
		"",
		statLine("Live", humanize.IBytes(uint64(max(s.LiveBytes, 0)))),
		statLine("Live Handles", humanize.Comma(s.LiveHandles)),
		statLine("Peak", humanize.IBytes(uint64(max(s.PeakBytes, 0)))),
	}

	if m.limiter != nil {
		used := max(m.limiter.Used(), 0)
		quota := m.limiter.Max()

		pct := 0.0
		if quota > 0 {
			pct = float64(used) / float64(quota)
		}
		if pct > 1 {
			pct = 1
		}

		lines = append(lines,
			statLine("Quota", fmt.Sprintf("%s of %s",
				humanize.IBytes(uint64(used)), humanize.IBytes(uint64(max(quota, 0))))),
			statLine("Denied", deniedStyle.Render(humanize.Comma(m.limiter.Denied()))),
			"",
			m.quotaBar.ViewAs(pct),
		)
	}

	return paneStyle.Render(strings.Join(lines, "\n"))
}

// classPaneRows caps how many size classes the pane lists.
const classPaneRows = 5

// renderClassPane lists the busiest pool size classes.
func (m Model) renderClassPane() string {
	busy := make([]int, 0, len(m.poolStats.Classes))
	for i, cs := range m.poolStats.Classes {
		if cs.Gets > 0 {
			busy = append(busy, i)
		}
	}
	sort.Slice(busy, func(a, b int) bool {
		return m.poolStats.Classes[busy[a]].Gets > m.poolStats.Classes[busy[b]].Gets
	})
	if len(busy) > classPaneRows {
		busy = busy[:classPaneRows]
	}

	lines := []string{
		paneTitleStyle.Render("Size Classes"),
		legendStyle.Render("gets / puts / new"),
	}
	if len(busy) == 0 {
		lines = append(lines, statValueStyle.Render("no traffic yet"))
	}
	for _, i := range busy {
		cs := m.poolStats.Classes[i]
		lines = append(lines, statLine(
			humanize.IBytes(uint64(cs.Size)),
			fmt.Sprintf("%s / %s / %s",
				humanize.Comma(cs.Gets), humanize.Comma(cs.Puts), humanize.Comma(cs.News)),
		))
	}
	return paneStyle.Render(strings.Join(lines, "\n"))
}

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// sparkline renders samples as a one-line bar graph, newest last,
// scaled against the largest sample in view.
func sparkline(samples []int64, width int) string {
	if len(samples) == 0 || width <= 0 {
		return ""
	}
	if len(samples) > width {
		samples = samples[len(samples)-width:]
	}

	var peak int64 = 1
	for _, s := range samples {
		if s > peak {
			peak = s
		}
	}

	var sb strings.Builder
	for _, s := range samples {
		if s < 0 {
			s = 0
		}
		sb.WriteRune(sparkRunes[int(s*int64(len(sparkRunes)-1)/peak)])
	}
	return sb.String()
}

func (m Model) renderHistoryPane() string {
	width := m.width - 6
	if width < 20 {
		width = 20
	}
	lines := []string{
		paneTitleStyle.Render("Live Bytes"),
		sparkStyle.Render(sparkline(m.history, width)),
	}
	return paneStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderStatus() string {
	// A transient message takes priority over the key hints.
	if m.statusMessage != "" {
		return statusStyle.Render(m.statusMessage)
	}

	parts := make([]string, 0, 4)
	for _, b := range []key.Binding{m.keys.Pause, m.keys.Copy, m.keys.Help, m.keys.Quit} {
		parts = append(parts, fmt.Sprintf("%s %s", b.Help().Key, b.Help().Desc))
	}
	return statusStyle.Render(strings.Join(parts, " • "))
}

func (m Model) renderHelpOverlay() string {
	rows := []struct {
		key  string
		desc string
	}{
		{"space/p", "pause or resume the workload"},
		{"c", "copy a stats snapshot"},
		{"?", "toggle this help"},
		{"q", "quit"},
	}

	var sb strings.Builder
	sb.WriteString(helpTitleStyle.Render("memtop help"))
	sb.WriteString("\n\n")
	for _, r := range rows {
		sb.WriteString(helpKeyStyle.Render(r.key))
		sb.WriteString(helpDescStyle.Render(r.desc))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(statusStyle.Render("Press esc, ?, or q to close"))
	return helpBoxStyle.Render(sb.String())
}
