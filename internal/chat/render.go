// ABOUTME: Markdown rendering of bot replies with glamour
// ABOUTME: User messages are shown literally

package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Renderer formats transcript messages for the terminal.
type Renderer struct {
	md    *glamour.TermRenderer
	width int
}

// NewRenderer wraps at width. An empty style detects light or dark from the
// terminal; otherwise it names a glamour standard style ("dark", "light", "notty").
func NewRenderer(width int, style string) (*Renderer, error) {
	if width < 20 {
		width = 20
	}

	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	md, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	return &Renderer{md: md, width: width}, nil
}

// Width is the wrap width.
func (r *Renderer) Width() int {
	return r.width
}

// Markdown renders text, falling back to the raw text if rendering fails.
func (r *Renderer) Markdown(text string) string {
	out, err := r.md.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// Message renders a bot message as markdown and a user message as-is.
func (r *Renderer) Message(m Message) string {
	if m.FromBot {
		return r.Markdown(m.Text)
	}
	return m.Text
}
