// Package overlay draws a box (modal, picker, toast) over an already
// rendered screen without clearing it.
package overlay

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Position specifies where to place the overlay content.
type Position int

const (
	// Center places the overlay in the middle of the viewport.
	Center Position = iota
	// Bottom places the overlay at the bottom center, PadY rows up.
	Bottom
)

// Config controls overlay rendering behavior.
type Config struct {
	Width    int
	Height   int
	Position Position
	PadY     int
}

// Place renders fg on top of bg. Styling on both sides survives because
// cutting is ANSI-aware.
func Place(cfg Config, fg, bg string) string {
	fgLines := strings.Split(fg, "\n")
	bgLines := strings.Split(bg, "\n")
	for len(bgLines) < cfg.Height {
		bgLines = append(bgLines, strings.Repeat(" ", cfg.Width))
	}

	x := max((cfg.Width-lipgloss.Width(fg))/2, 0)
	y := max((cfg.Height-len(fgLines))/2, 0)
	if cfg.Position == Bottom {
		y = max(cfg.Height-len(fgLines)-cfg.PadY, 0)
	}

	for i, line := range fgLines {
		row := y + i
		if row >= len(bgLines) {
			break
		}
		bgLines[row] = splice(bgLines[row], line, x)
	}
	return strings.Join(bgLines, "\n")
}

// splice replaces the cells of bg starting at column x with fg.
func splice(bg, fg string, x int) string {
	left := ansi.Truncate(bg, x, "")
	if w := ansi.StringWidth(left); w < x {
		left += strings.Repeat(" ", x-w)
	}
	end := x + ansi.StringWidth(fg)
	var right string
	if end < ansi.StringWidth(bg) {
		right = ansi.TruncateLeft(bg, end, "")
	}
	return left + fg + right
}
