package main

import (
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles all messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// If help is showing, handle help keys
		if m.showHelp {
			if key.Matches(msg, m.keys.Esc) || key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Quit) {
				m.showHelp = false
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Pause):
			m.paused = m.gen.Toggle()

		case key.Matches(msg, m.keys.Copy):
			if err := clipboard.WriteAll(m.statsReport()); err != nil {
				m.statusMessage = "Failed to copy stats"
			} else {
				m.statusMessage = "Stats copied to clipboard"
			}
			return m, clearStatusCmd()

		case key.Matches(msg, m.keys.Help):
			m.showHelp = true
		}
		return m, nil

	case clearStatusMsg:
		m.statusMessage = ""
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		barWidth := msg.Width - 30
		if barWidth > 48 {
			barWidth = 48
		}
		if barWidth < 10 {
			barWidth = 10
		}
		m.quotaBar.Width = barWidth
		return m, nil

	case tickMsg:
		now := time.Time(msg)
		stats := m.tracker.Stats()

		interval := now.Sub(m.lastTick).Seconds()
		if interval > 0 {
			completed := stats.Allocs + stats.Reallocs + stats.Releases
			before := m.stats.Allocs + m.stats.Reallocs + m.stats.Releases
			m.rate = float64(completed-before) / interval
		}
		m.stats = stats
		m.lastTick = now

		if m.pool != nil {
			m.poolStats = m.pool.Stats()
		}

		m.history = append(m.history, stats.LiveBytes)
		if len(m.history) > historyLen {
			m.history = m.history[len(m.history)-historyLen:]
		}
		return m, tickCmd()
	}

	return m, nil
}
