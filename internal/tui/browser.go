// Package tui provides an interactive session browser: pick a captured
// session, see its replay verdict and diffs without leaving the terminal.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hoptrace/hoptrace/internal/domain"
	"github.com/hoptrace/hoptrace/internal/replay"
)

var (
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	cleanStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	corruptedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	detailStyle    = lipgloss.NewStyle().PaddingLeft(2)
)

// sessionItem adapts a SessionInfo for the list widget.
type sessionItem struct {
	info replay.SessionInfo
}

func (i sessionItem) Title() string { return i.info.Name }
func (i sessionItem) Description() string {
	first := "no snapshots"
	if !i.info.FirstCapture.IsZero() {
		first = i.info.FirstCapture.Format("2006-01-02 15:04")
	}
	return fmt.Sprintf("%d snapshots, first %s", i.info.Snapshots, first)
}
func (i sessionItem) FilterValue() string { return i.info.Name }

// Model is the browser's bubbletea model.
type Model struct {
	captureDir string
	sessions   list.Model
	result     *domain.ReplayResult
	quitting   bool
}

// New creates a browser over the sessions recorded under captureDir.
func New(captureDir string) Model {
	infos := replay.ListSessions(captureDir)
	items := make([]list.Item, 0, len(infos))
	for _, info := range infos {
		items = append(items, sessionItem{info: info})
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Capture Sessions"
	l.SetShowStatusBar(false)

	return Model{captureDir: captureDir, sessions: l}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.sessions.SetSize(msg.Width, msg.Height/2)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			if item, ok := m.sessions.SelectedItem().(sessionItem); ok {
				result := replay.ReplaySession(m.captureDir, item.info.Name, nil)
				m.result = &result
			}
			return m, nil
		case "esc":
			m.result = nil
		}
	}

	var cmd tea.Cmd
	m.sessions, cmd = m.sessions.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.sessions.View())
	b.WriteString("\n")

	if m.result != nil {
		b.WriteString(renderResult(m.result))
	} else {
		b.WriteString(dimStyle.Render("enter: replay selected session | q: quit"))
	}
	return b.String()
}

func renderResult(r *domain.ReplayResult) string {
	var b strings.Builder

	verdict := cleanStyle.Render("CLEAN")
	if !r.IsClean {
		verdict = corruptedStyle.Render("CORRUPTED")
	}
	b.WriteString(titleStyle.Render("Replay: "+r.SessionName) + " " + verdict + "\n")

	if len(r.Snapshots) == 0 {
		b.WriteString(detailStyle.Render("no snapshots recorded") + "\n")
		return b.String()
	}

	b.WriteString(detailStyle.Render(fmt.Sprintf("stages: %s", strings.Join(r.StagesSeen(), " -> "))) + "\n")
	if r.FirstCorruptionHop != "" {
		b.WriteString(detailStyle.Render(corruptedStyle.Render("first corruption at: "+r.FirstCorruptionHop)) + "\n")
	}

	shown := r.Diffs
	if len(shown) > 10 {
		shown = shown[:10]
	}
	for _, d := range shown {
		b.WriteString(detailStyle.Render(fmt.Sprintf("%s %s (%s)", d.HopName, d.Path, d.DiffType)) + "\n")
	}
	if len(r.Diffs) > 10 {
		b.WriteString(detailStyle.Render(dimStyle.Render(fmt.Sprintf("... and %d more", len(r.Diffs)-10))) + "\n")
	}
	return b.String()
}
