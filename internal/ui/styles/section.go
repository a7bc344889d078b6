package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// RenderField renders one form field as a rounded box with the label set
// into the top border: ╭─ Label ───╮. A non-empty errMsg is shown under the
// box and turns its border red whether or not the field has focus.
func RenderField(input, label, errMsg string, width int, focused bool) string {
	var color lipgloss.TerminalColor = BorderDefaultColor
	switch {
	case errMsg != "":
		color = StatusErrorColor
	case focused:
		color = BorderHighlightFocusColor
	}

	box := fieldBox(input, label, width, color, focused || errMsg != "")
	if errMsg == "" {
		return box
	}
	return box + "\n" + FieldErrorStyle.Render(" "+errMsg)
}

// fieldBox draws a single-line box exactly width cells wide. Content that
// does not fit is cut.
func fieldBox(content, label string, width int, color lipgloss.TerminalColor, bold bool) string {
	border := lipgloss.RoundedBorder()
	edge := lipgloss.NewStyle().Foreground(color)
	inner := max(width-2, 1)

	var top string
	if label == "" {
		top = edge.Render(border.TopLeft + strings.Repeat(border.Top, inner) + border.TopRight)
	} else {
		label = ansi.Truncate(label, max(inner-3, 1), "…")
		fill := max(inner-lipgloss.Width(label)-3, 0)
		top = edge.Render(border.TopLeft+border.Top+" ") +
			lipgloss.NewStyle().Bold(bold).Foreground(color).Render(label) +
			edge.Render(" "+strings.Repeat(border.Top, fill)+border.TopRight)
	}

	body := ansi.Truncate(content, inner, "")
	pad := strings.Repeat(" ", max(inner-lipgloss.Width(body), 0))
	mid := edge.Render(border.Left) + body + pad + edge.Render(border.Right)

	bottom := edge.Render(border.BottomLeft + strings.Repeat(border.Bottom, inner) + border.BottomRight)
	return top + "\n" + mid + "\n" + bottom
}
