package main

import tea "github.com/charmbracelet/bubbletea"

// MainViewModel wraps the dashboard render for use as the overlay
// background.
type MainViewModel struct {
	model *Model
}

func NewMainViewModel(m *Model) *MainViewModel {
	return &MainViewModel{model: m}
}

func (m *MainViewModel) Init() tea.Cmd {
	return nil
}

func (m *MainViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Input is handled by the parent Model. This model only provides
	// the View() for overlay composition.
	return m, nil
}

func (m *MainViewModel) View() string {
	return m.model.renderDashboard()
}

// HelpViewModel wraps the help box for use as the overlay foreground.
type HelpViewModel struct {
	model *Model
}

func NewHelpViewModel(m *Model) *HelpViewModel {
	return &HelpViewModel{model: m}
}

func (h *HelpViewModel) Init() tea.Cmd {
	return nil
}

func (h *HelpViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return h, nil
}

func (h *HelpViewModel) View() string {
	return h.model.renderHelpOverlay()
}
