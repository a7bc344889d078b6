// Package picker provides the single-choice list used to choose a hospital.
package picker

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/intakehq/intake/internal/ui/overlay"
	"github.com/intakehq/intake/internal/ui/styles"
)

const defaultVisible = 10

// Option represents a picker option with label and value.
type Option struct {
	Label string
	Value string
}

// SelectMsg is sent when the user picks an option.
type SelectMsg struct {
	Option Option
}

// CancelMsg is sent when the picker is dismissed.
type CancelMsg struct{}

// Model holds the picker state.
type Model struct {
	title          string
	options        []Option
	selected       int
	offset         int // first visible option
	visible        int
	boxWidth       int
	viewportWidth  int
	viewportHeight int
}

// New creates a new picker with the given title and options.
func New(title string, options []Option) Model {
	return Model{title: title, options: options, visible: defaultVisible}
}

// SetSize sets the viewport dimensions for overlay rendering.
func (m Model) SetSize(width, height int) Model {
	m.viewportWidth = width
	m.viewportHeight = height
	return m
}

// SetBoxWidth sets the width of the picker box itself.
func (m Model) SetBoxWidth(width int) Model {
	m.boxWidth = width
	return m
}

// SetSelected moves the cursor to index. Out-of-range indexes are ignored.
func (m Model) SetSelected(index int) Model {
	if index >= 0 && index < len(m.options) {
		m.selected = index
		m = m.scroll()
	}
	return m
}

// Selected returns the option under the cursor.
func (m Model) Selected() (Option, bool) {
	if m.selected >= 0 && m.selected < len(m.options) {
		return m.options[m.selected], true
	}
	return Option{}, false
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "j", "down", "ctrl+n":
		if m.selected < len(m.options)-1 {
			m.selected++
		}
	case "k", "up", "ctrl+p":
		if m.selected > 0 {
			m.selected--
		}
	case "enter":
		if opt, ok := m.Selected(); ok {
			return m, func() tea.Msg { return SelectMsg{Option: opt} }
		}
	case "esc", "q":
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m.scroll(), nil
}

// scroll keeps the cursor inside the visible window.
func (m Model) scroll() Model {
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+m.visible {
		m.offset = m.selected - m.visible + 1
	}
	return m
}

// View renders the picker box (without positioning).
func (m Model) View() string {
	width := m.boxWidth
	if width == 0 {
		width = 30
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.OverlayTitleColor).
		PaddingLeft(1)
	divider := lipgloss.NewStyle().
		Foreground(styles.OverlayBorderColor).
		Render(strings.Repeat("─", width))

	var rows []string
	if len(m.options) == 0 {
		rows = append(rows, styles.HintStyle.Render(" Nothing to choose from"))
	}
	end := min(m.offset+m.visible, len(m.options))
	for i := m.offset; i < end; i++ {
		opt := m.options[i]
		if i == m.selected {
			rows = append(rows, styles.SelectionIndicatorStyle.Render(">")+lipgloss.NewStyle().Bold(true).Render(opt.Label))
		} else {
			rows = append(rows, " "+opt.Label)
		}
	}
	if len(m.options) > m.visible {
		rows = append(rows, styles.HintStyle.Render(
			fmt.Sprintf(" %d/%d", m.selected+1, len(m.options))))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.OverlayBorderColor).
		Width(width).
		Render(titleStyle.Render(m.title) + "\n" + divider + "\n" + strings.Join(rows, "\n"))
}

// Overlay renders the picker on top of a background view.
func (m Model) Overlay(background string) string {
	box := m.View()
	if background == "" {
		return lipgloss.Place(m.viewportWidth, m.viewportHeight, lipgloss.Center, lipgloss.Center, box)
	}
	return overlay.Place(overlay.Config{
		Width:    m.viewportWidth,
		Height:   m.viewportHeight,
		Position: overlay.Center,
	}, box, background)
}

// FindIndexByValue returns the index of the option with the given value,
// or 0 when none matches.
func FindIndexByValue(options []Option, value string) int {
	for i, opt := range options {
		if opt.Value == value {
			return i
		}
	}
	return 0
}
