package conversation

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/Lin-Jiong-HDU/wissen/internal/knowledge"
)

// Renderer formats answers for the terminal. A disabled Renderer passes
// text through unchanged.
type Renderer struct {
	term *glamour.TermRenderer
}

// NewRenderer creates a markdown renderer wrapping at width. With
// enabled false no glamour renderer is built.
func NewRenderer(width int, enabled bool) (*Renderer, error) {
	if !enabled {
		return &Renderer{}, nil
	}
	if width <= 0 {
		width = 100
	}

	term, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return &Renderer{term: term}, nil
}

// Render returns the styled markdown, or the input when rendering is off
// or fails.
func (r *Renderer) Render(markdown string) string {
	if r == nil || r.term == nil {
		return markdown
	}
	out, err := r.term.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(out, "\n")
}

// FormatSources lists search hits the way answers cite them.
func FormatSources(results []knowledge.Result) string {
	if len(results) == 0 {
		return "📚 Keine Quellen zur letzten Antwort."
	}
	var b strings.Builder
	b.WriteString("📚 Quellen:")
	for i, r := range results {
		fmt.Fprintf(&b, "\n  %d. %s (Score: %.4f)", i+1, sourceLabel(r, i), r.Score)
	}
	return b.String()
}

func sourceLabel(r knowledge.Result, i int) string {
	if r.Source != "" {
		return r.Source
	}
	return fmt.Sprintf("Dokument %d", i+1)
}
