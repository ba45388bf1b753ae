package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"github.com/pkg/errors"

	"github.com/go-go-golems/chatwidget/pkg/conversation"
)

// Renderer turns assistant content into terminal output.
type Renderer interface {
	Render(content string) (string, error)
}

// PlainRenderer prints content as is.
type PlainRenderer struct{}

func (PlainRenderer) Render(content string) (string, error) { return content, nil }

// MarkdownRenderer renders assistant replies as markdown through glamour.
type MarkdownRenderer struct {
	tr *glamour.TermRenderer
}

// DetectStyle picks the glamour style matching the terminal background.
func DetectStyle() string {
	if termenv.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

// NewMarkdownRenderer builds a renderer for the given glamour style and wrap
// width. A width <= 0 disables wrapping.
func NewMarkdownRenderer(style string, width int) (*MarkdownRenderer, error) {
	opts := []glamour.TermRendererOption{glamour.WithStandardStyle(style)}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	tr, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create markdown renderer")
	}
	return &MarkdownRenderer{tr: tr}, nil
}

func (r *MarkdownRenderer) Render(content string) (string, error) {
	out, err := r.tr.Render(content)
	if err != nil {
		return "", err
	}
	return strings.Trim(out, "\n"), nil
}

const timeLayout = "15:04"

// RenderMessage formats one turn: a role/time label line followed by its body.
func RenderMessage(m conversation.Message, r Renderer) string {
	var label string
	var body string
	switch m.Role {
	case conversation.RoleUser:
		label = userLabelStyle.Render("You")
		body = userBodyStyle.Render(m.Content)
	default:
		label = botLabelStyle.Render("Assistant")
		rendered, err := r.Render(m.Content)
		if err != nil {
			rendered = m.Content
		}
		body = rendered
	}
	return label + " " + timeStyle.Render(m.Timestamp.Format(timeLayout)) + "\n" + body
}

// RenderTranscript formats a whole conversation, one blank line between turns.
func RenderTranscript(msgs []conversation.Message, r Renderer) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, RenderMessage(m, r))
	}
	return strings.Join(parts, "\n\n")
}
