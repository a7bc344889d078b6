// Package logoverlay provides an in-app log viewer overlay that shows
// recent log entries without leaving the TUI.
package logoverlay

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/intakehq/intake/internal/log"
	"github.com/intakehq/intake/internal/ui/overlay"
	"github.com/intakehq/intake/internal/ui/styles"
)

const (
	maxEntries        = 500
	viewportMaxHeight = 25
	viewportMinHeight = 5
	boxMaxWidth       = 160
	boxMinWidth       = 40
)

// CloseMsg is sent when the overlay should be closed.
type CloseMsg struct{}

// Model is the log overlay component state.
type Model struct {
	visible  bool
	minLevel log.Level
	entries  []string
	width    int
	height   int
	viewport viewport.Model
}

// New creates a hidden overlay showing every level.
func New() Model {
	return Model{minLevel: log.LevelDebug}
}

// Append records an entry, keeping the most recent maxEntries.
func (m *Model) Append(entry string) {
	m.entries = append(m.entries, strings.TrimSuffix(entry, "\n"))
	if over := len(m.entries) - maxEntries; over > 0 {
		m.entries = m.entries[over:]
	}
	if m.visible {
		m.refreshViewport()
	}
}

// Entries returns the buffered entries.
func (m Model) Entries() []string {
	return m.entries
}

// Update handles messages for the log overlay.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.visible {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "c":
			m.entries = nil
		case "d":
			m.minLevel = log.LevelDebug
		case "i":
			m.minLevel = log.LevelInfo
		case "w":
			m.minLevel = log.LevelWarn
		case "e":
			m.minLevel = log.LevelError
		case "j", "down":
			m.viewport.ScrollDown(1)
			return m, nil
		case "k", "up":
			m.viewport.ScrollUp(1)
			return m, nil
		case "g":
			m.viewport.GotoTop()
			return m, nil
		case "G":
			m.viewport.GotoBottom()
			return m, nil
		case "ctrl+c":
			return m, tea.Quit
		case "ctrl+x", "esc":
			m.visible = false
			return m, func() tea.Msg { return CloseMsg{} }
		default:
			return m, nil
		}
		m.refreshViewport()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.refreshViewport()
	}
	return m, nil
}

// View renders the overlay box.
func (m Model) View() string {
	if !m.visible {
		return ""
	}
	width := m.boxWidth()

	divider := lipgloss.NewStyle().
		Foreground(styles.OverlayBorderColor).
		Render(strings.Repeat("─", width))
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.OverlayTitleColor).
		PaddingLeft(1).
		Render("Logs")

	body := strings.Join([]string{title, divider, m.viewport.View(), divider, m.filterHint()}, "\n")
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.OverlayBorderColor).
		Width(width).
		Render(body)
}

func (m Model) filtered() []string {
	var out []string
	for _, entry := range m.entries {
		if levelOf(entry) >= m.minLevel {
			out = append(out, entry)
		}
	}
	return out
}

func (m *Model) refreshViewport() {
	if m.width == 0 || m.height == 0 {
		return
	}
	contentWidth := m.boxWidth() - 2
	// header, footer and borders take six rows
	height := max(min(viewportMaxHeight, m.height-6), viewportMinHeight)

	m.viewport = viewport.New(contentWidth, height)
	entries := m.filtered()
	if len(entries) == 0 {
		m.viewport.SetContent(lipgloss.NewStyle().Foreground(styles.TextMutedColor).Italic(true).Render("No logs to display"))
		return
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = colorize(e, contentWidth)
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.GotoBottom()
}

// Overlay renders the log overlay centered on the given background.
func (m Model) Overlay(bg string) string {
	if !m.visible {
		return bg
	}
	return overlay.Place(overlay.Config{Width: m.width, Height: m.height, Position: overlay.Center}, m.View(), bg)
}

// Visible returns whether the overlay is currently visible.
func (m Model) Visible() bool {
	return m.visible
}

// Toggle toggles the overlay visibility.
func (m *Model) Toggle() {
	m.visible = !m.visible
	if m.visible {
		m.refreshViewport()
	}
}

// Hide makes the overlay invisible.
func (m *Model) Hide() {
	m.visible = false
}

// SetSize updates the overlay's knowledge of viewport size.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.refreshViewport()
}

func (m Model) boxWidth() int {
	return max(min(m.width-4, boxMaxWidth), boxMinWidth)
}

// levelOf reads the level tag written by the log package. Untagged lines
// sort above everything so they are never filtered out.
func levelOf(entry string) log.Level {
	switch {
	case strings.Contains(entry, "[ERROR]"):
		return log.LevelError
	case strings.Contains(entry, "[WARN]"):
		return log.LevelWarn
	case strings.Contains(entry, "[INFO]"):
		return log.LevelInfo
	case strings.Contains(entry, "[DEBUG]"):
		return log.LevelDebug
	}
	return log.LevelError + 1
}

func colorize(entry string, maxWidth int) string {
	if ansi.StringWidth(entry) > maxWidth {
		entry = ansi.Truncate(entry, maxWidth-3, "...")
	}
	var color lipgloss.TerminalColor = styles.TextPrimaryColor
	switch levelOf(entry) {
	case log.LevelError:
		color = styles.StatusErrorColor
	case log.LevelWarn:
		color = styles.StatusWarningColor
	case log.LevelInfo:
		color = styles.StatusInfoColor
	case log.LevelDebug:
		color = styles.TextMutedColor
	}
	return lipgloss.NewStyle().Foreground(color).Render(entry)
}

func (m Model) filterHint() string {
	hint := lipgloss.NewStyle().Foreground(styles.TextMutedColor)
	active := lipgloss.NewStyle().Foreground(styles.TextPrimaryColor).Bold(true)

	parts := []string{hint.Render("[c] Clear")}
	for _, f := range []struct {
		level log.Level
		label string
	}{
		{log.LevelDebug, "[d] Debug"},
		{log.LevelInfo, "[i] Info"},
		{log.LevelWarn, "[w] Warn"},
		{log.LevelError, "[e] Error"},
	} {
		if f.level == m.minLevel {
			parts = append(parts, active.Render(f.label))
		} else {
			parts = append(parts, hint.Render(f.label))
		}
	}
	return strings.Join(parts, "  ")
}
