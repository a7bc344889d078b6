// Package markdown renders record cards for the TUI.
package markdown

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// noMarginStyle drops document margins on top of the auto-detected style.
const noMarginStyle = `{
	"document": {
		"margin": 0,
		"block_prefix": "",
		"block_suffix": ""
	}
}`

// Renderer turns markdown into styled terminal output wrapped at a width.
type Renderer struct {
	renderer *glamour.TermRenderer
	width    int
}

// New creates a renderer that wraps at width.
func New(width int) (*Renderer, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithStylesFromJSONBytes([]byte(noMarginStyle)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return &Renderer{renderer: r, width: width}, nil
}

// Width returns the wrap width.
func (r *Renderer) Width() int {
	return r.width
}

// Render transforms markdown to styled output without trailing blank lines.
func (r *Renderer) Render(md string) (string, error) {
	out, err := r.renderer.Render(md)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n "), nil
}

var escaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"#", `\#`,
	"[", `\[`,
	"]", `\]`,
	"|", `\|`,
	"<", `\<`,
	">", `\>`,
)

// Escape quotes user-entered text so it renders literally.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Field is one row of a Card.
type Field struct {
	Label string
	Value string
}

// Card builds a heading followed by a two-column table. Empty values render
// as a dash.
func Card(title string, fields []Field) string {
	var b strings.Builder
	b.WriteString("## ")
	b.WriteString(Escape(title))
	b.WriteString("\n\n| | |\n|---|---|\n")
	for _, f := range fields {
		v := strings.TrimSpace(f.Value)
		if v == "" {
			v = "-"
		} else {
			v = Escape(v)
		}
		b.WriteString("| **")
		b.WriteString(Escape(f.Label))
		b.WriteString("** | ")
		b.WriteString(v)
		b.WriteString(" |\n")
	}
	return b.String()
}
