// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ik5/audcache"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type statusMsg float64

type failedMsg struct {
	source string
	err    error
}

type doneMsg struct{}

type failure struct {
	source string
	err    error
}

type model struct {
	cache    *audcache.Cache
	total    int
	percent  float64
	bar      progress.Model
	failures []failure
	done     bool
	stats    audcache.Stats
}

func newModel(c *audcache.Cache, total int) *model {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40
	return &model{
		cache: c,
		total: total,
		bar:   bar,
	}
}

func (m *model) Init() tea.Cmd {
	return m.startQueue
}

func (m *model) startQueue() tea.Msg {
	m.cache.LoadQueue()
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.cache.ResetQueue()
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-4, 10), 80)

	case statusMsg:
		m.percent = float64(msg)

	case failedMsg:
		m.failures = append(m.failures, failure(msg))

	case doneMsg:
		m.done = true
		m.percent = 1
		m.stats = m.cache.Stats()
		return m, tea.Quit
	}
	return m, nil
}

func (m *model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Preloading %d sounds", m.total)))
	b.WriteString("\n\n")
	b.WriteString(m.bar.ViewAs(m.percent))
	b.WriteString("\n\n")

	for _, f := range m.failures {
		b.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %v", f.source, f.err)))
		b.WriteString("\n")
	}

	if m.done {
		b.WriteString(doneStyle.Render(fmt.Sprintf("✓ %d of %d loaded", m.stats.Loaded, m.stats.Total)))
		b.WriteString("\n")
	} else {
		b.WriteString(helpStyle.Render("q: abort"))
		b.WriteString("\n")
	}
	return b.String()
}
