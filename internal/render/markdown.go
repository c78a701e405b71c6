// Package render turns the story's markdown into terminal markup.
package render

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"
)

type Options struct {
	// Style is a glamour standard style name: dark, light, pink, notty, ascii.
	Style    string
	WordWrap int
}

type Markdown struct {
	r *glamour.TermRenderer
}

func NewMarkdown(opts Options) (*Markdown, error) {
	style := opts.Style
	if style == "" {
		style = "dark"
	}
	wrap := opts.WordWrap
	if wrap <= 0 {
		wrap = 78
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return nil, err
	}
	return &Markdown{r: r}, nil
}

// Render never fails: when glamour errors the source comes back unchanged.
func (m *Markdown) Render(md string) string {
	if m == nil || m.r == nil {
		return md
	}
	out, err := m.r.Render(md)
	if err != nil {
		return md
	}
	return trimBlankLines(out)
}

// Plain passes markdown through untouched. Used where no styling is wanted.
type Plain struct{}

func (Plain) Render(md string) string { return strings.Trim(md, "\n") }

func trimBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(ansi.Strip(lines[start])) == "" {
		start++
	}
	for end > start && strings.TrimSpace(ansi.Strip(lines[end-1])) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}
