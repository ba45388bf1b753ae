package cmds

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/values"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/go-go-golems/chatwidget/pkg/conversation"
	"github.com/go-go-golems/chatwidget/pkg/ui"
)

// AskCommand sends one message and prints only the reply, rendered as
// markdown when the output is a terminal.
type AskCommand struct {
	*cmds.CommandDescription
}

var _ cmds.WriterCommand = (*AskCommand)(nil)

func NewAskCommand() (*AskCommand, error) {
	return &AskCommand{
		CommandDescription: newExchangeDescription(
			"ask",
			"Send one message and print the reply",
			"Send one message and print the reply. Without arguments the message is "+
				"read from stdin, or asked for when stdin is a terminal.",
		),
	}, nil
}

func (c *AskCommand) RunIntoWriter(ctx context.Context, parsedLayers *values.Values, w io.Writer) error {
	s := &ExchangeSettings{}
	if err := parsedLayers.DecodeSectionInto(values.DefaultSlug, s); err != nil {
		return err
	}

	_, reply, err := exchange(ctx, s)
	if err != nil {
		return err
	}
	return writeReply(w, *reply)
}

// isTerminal reports whether w is a file attached to a terminal. Any other
// writer is treated as a pipe.
func isTerminal(w io.Writer) (*os.File, bool) {
	f, ok := w.(*os.File)
	if !ok {
		return nil, false
	}
	return f, isatty.IsTerminal(f.Fd())
}

func writeReply(w io.Writer, reply conversation.Message) error {
	f, tty := isTerminal(w)
	if !tty {
		_, err := fmt.Fprintln(w, reply.Content)
		return err
	}

	width := 0
	if cols, _, err := term.GetSize(int(f.Fd())); err == nil {
		width = cols
	}
	var r ui.Renderer = ui.PlainRenderer{}
	if mr, err := ui.NewMarkdownRenderer(ui.DetectStyle(), width); err == nil {
		r = mr
	} else {
		log.Debug().Err(err).Str("component", "ask").Msg("falling back to plain rendering")
	}
	_, err := fmt.Fprintln(w, ui.RenderMessage(reply, r))
	return err
}
