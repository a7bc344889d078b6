// Package toaster shows short-lived notifications at the bottom of a screen.
package toaster

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/intakehq/intake/internal/ui/overlay"
	"github.com/intakehq/intake/internal/ui/styles"
)

// DefaultDuration is how long a toast stays up.
const DefaultDuration = 3 * time.Second

// Style determines the visual appearance of the toast.
type Style int

const (
	StyleSuccess Style = iota
	StyleError
	StyleInfo
)

// DismissMsg hides the toast with the matching id. Older dismissals are
// ignored so a fresh toast is not cut short.
type DismissMsg struct {
	id int
}

// Model holds the toaster state.
type Model struct {
	message string
	style   Style
	visible bool
	id      int
}

// New creates a hidden toaster.
func New() Model {
	return Model{}
}

// Show displays message and returns the command that will dismiss it.
func (m Model) Show(message string, style Style, d time.Duration) (Model, tea.Cmd) {
	m.id++
	m.message = message
	m.style = style
	m.visible = true
	id := m.id
	return m, tea.Tick(d, func(time.Time) tea.Msg { return DismissMsg{id: id} })
}

// Update handles dismissals.
func (m Model) Update(msg tea.Msg) Model {
	if d, ok := msg.(DismissMsg); ok && d.id == m.id {
		m.visible = false
		m.message = ""
	}
	return m
}

// Visible returns whether the toast is currently showing.
func (m Model) Visible() bool {
	return m.visible
}

// Message returns the text of the visible toast.
func (m Model) Message() string {
	return m.message
}

// View renders the toast box.
func (m Model) View() string {
	if !m.visible {
		return ""
	}
	color := styles.StatusSuccessColor
	prefix := "✓ "
	switch m.style {
	case StyleError:
		color = styles.StatusErrorColor
		prefix = "✗ "
	case StyleInfo:
		color = styles.StatusInfoColor
		prefix = "i "
	}
	return lipgloss.NewStyle().
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Render(prefix + m.message)
}

// Overlay renders the toast one row above the bottom edge of bg.
func (m Model) Overlay(bg string, width, height int) string {
	if !m.visible {
		return bg
	}
	return overlay.Place(overlay.Config{
		Width:    width,
		Height:   height,
		Position: overlay.Bottom,
		PadY:     1,
	}, m.View(), bg)
}
