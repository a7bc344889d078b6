// Package modal provides the confirmation dialog shown before discarding
// unsaved work.
package modal

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/muesli/reflow/wordwrap"

	"github.com/intakehq/intake/internal/ui/overlay"
	"github.com/intakehq/intake/internal/ui/styles"
)

// ButtonVariant controls the styling of the confirm button.
type ButtonVariant int

const (
	ButtonPrimary ButtonVariant = iota // Blue (default)
	ButtonDanger                       // Red (for destructive actions)
)

// Config controls modal appearance.
type Config struct {
	Title          string
	Message        string
	ConfirmLabel   string // default "Confirm"
	CancelLabel    string // default "Cancel"
	ConfirmVariant ButtonVariant
	MinWidth       int // 0 = default 40
}

// ConfirmMsg is sent when the user confirms.
type ConfirmMsg struct{}

// CancelMsg is sent when the user dismisses the modal (Esc or Cancel).
type CancelMsg struct{}

// Field identifies which button is focused.
type Field int

const (
	FieldConfirm Field = iota
	FieldCancel
)

// Model is the modal component state.
type Model struct {
	config  Config
	focused Field
	width   int
	height  int

	// zonePrefix keeps button zones of different modals apart
	zonePrefix string
}

// New creates a modal focused on the cancel button, so a stray Enter keeps
// the user's work.
func New(cfg Config) Model {
	if cfg.ConfirmLabel == "" {
		cfg.ConfirmLabel = "Confirm"
	}
	if cfg.CancelLabel == "" {
		cfg.CancelLabel = "Cancel"
	}
	return Model{config: cfg, focused: FieldCancel, zonePrefix: zone.NewPrefix()}
}

// ConfirmZone is the mouse zone id of the confirm button.
func (m Model) ConfirmZone() string { return m.zonePrefix + "confirm" }

// CancelZone is the mouse zone id of the cancel button.
func (m Model) CancelZone() string { return m.zonePrefix + "cancel" }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the modal.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "shift+tab", "left", "right", "h", "l":
			if m.focused == FieldConfirm {
				m.focused = FieldCancel
			} else {
				m.focused = FieldConfirm
			}
		case "y":
			return m, func() tea.Msg { return ConfirmMsg{} }
		case "n", "esc":
			return m, func() tea.Msg { return CancelMsg{} }
		case "enter":
			if m.focused == FieldConfirm {
				return m, func() tea.Msg { return ConfirmMsg{} }
			}
			return m, func() tea.Msg { return CancelMsg{} }
		}
	case tea.MouseMsg:
		if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		if z := zone.Get(m.ConfirmZone()); z != nil && z.InBounds(msg) {
			m.focused = FieldConfirm
			return m, func() tea.Msg { return ConfirmMsg{} }
		}
		if z := zone.Get(m.CancelZone()); z != nil && z.InBounds(msg) {
			m.focused = FieldCancel
			return m, func() tea.Msg { return CancelMsg{} }
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

// View renders the modal box (without overlay).
func (m Model) View() string {
	contentWidth := max(40, m.config.MinWidth, lipgloss.Width(m.config.Title))
	boxWidth := contentWidth + 2

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.OverlayTitleColor).
		PaddingLeft(1)
	divider := lipgloss.NewStyle().
		Foreground(styles.OverlayBorderColor).
		Render(strings.Repeat("─", boxWidth))

	var content strings.Builder
	if m.config.Message != "" {
		content.WriteString(lipgloss.NewStyle().
			Foreground(styles.TextPrimaryColor).
			Render(wordwrap.String(m.config.Message, contentWidth)))
		content.WriteString("\n\n")
	}
	content.WriteString(m.renderButtons())

	body := titleStyle.Render(m.config.Title) + "\n" +
		divider + "\n" +
		lipgloss.NewStyle().Padding(1, 1).Render(content.String())

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.OverlayBorderColor).
		Width(boxWidth).
		Render(body)
}

func (m Model) renderButtons() string {
	var confirm lipgloss.Style
	switch m.config.ConfirmVariant {
	case ButtonDanger:
		confirm = styles.DangerButtonStyle
		if m.focused == FieldConfirm {
			confirm = styles.DangerButtonFocusedStyle
		}
	default:
		confirm = styles.PrimaryButtonStyle
		if m.focused == FieldConfirm {
			confirm = styles.PrimaryButtonFocusedStyle
		}
	}

	cancel := styles.SecondaryButtonStyle
	if m.focused == FieldCancel {
		cancel = styles.SecondaryButtonFocusedStyle
	}
	return zone.Mark(m.ConfirmZone(), confirm.Render(m.config.ConfirmLabel)) + "  " +
		zone.Mark(m.CancelZone(), cancel.Render(m.config.CancelLabel))
}

// Overlay renders the modal centered on the given background.
func (m Model) Overlay(bg string) string {
	return overlay.Place(overlay.Config{
		Width:    m.width,
		Height:   m.height,
		Position: overlay.Center,
	}, m.View(), bg)
}

// SetSize updates the viewport size used for centering.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Focused returns the focused button.
func (m Model) Focused() Field {
	return m.focused
}
