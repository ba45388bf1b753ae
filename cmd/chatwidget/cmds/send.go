package cmds

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-go-golems/glazed/pkg/cli"
	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/values"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/types"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	input "github.com/tcnksm/go-input"

	"github.com/go-go-golems/chatwidget/pkg/conversation"
	"github.com/go-go-golems/chatwidget/pkg/widget"
)

// SendCommand sends one message and emits the resulting conversation, one row
// per turn.
type SendCommand struct {
	*cmds.CommandDescription
}

var _ cmds.GlazeCommand = &SendCommand{}

func NewSendCommand() (*SendCommand, error) {
	glazedLayer, err := settings.NewGlazedSection()
	if err != nil {
		return nil, err
	}
	commandSettingsLayer, err := cli.NewCommandSettingsSection()
	if err != nil {
		return nil, err
	}

	return &SendCommand{
		CommandDescription: newExchangeDescription(
			"send",
			"Send one message and list the conversation",
			"Send one message and list every turn of the conversation, greeting included. "+
				"Without arguments the message is read from stdin, or asked for when stdin is a terminal.",
			cmds.WithSections(glazedLayer, commandSettingsLayer),
		),
	}, nil
}

func (c *SendCommand) RunIntoGlazeProcessor(
	ctx context.Context,
	parsedLayers *values.Values,
	gp middlewares.Processor,
) error {
	s := &ExchangeSettings{}
	if err := parsedLayers.DecodeSectionInto(values.DefaultSlug, s); err != nil {
		return err
	}

	sess, _, err := exchange(ctx, s)
	if err != nil {
		return err
	}

	for _, row := range transcriptRows(sess.Messages()) {
		if err := gp.AddRow(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func transcriptRows(msgs []conversation.Message) []types.Row {
	rows := make([]types.Row, 0, len(msgs))
	for _, m := range msgs {
		rows = append(rows, types.NewRow(
			types.MRP("id", string(m.ID)),
			types.MRP("role", string(m.Role)),
			types.MRP("content", m.Content),
			types.MRP("timestamp", m.Timestamp.Format(time.RFC3339)),
		))
	}
	return rows
}

// exchange runs a single exchange against the configured endpoint.
func exchange(ctx context.Context, s *ExchangeSettings) (*widget.Session, *conversation.Message, error) {
	message, err := readMessage(s.Message)
	if err != nil {
		return nil, nil, err
	}

	sess, err := s.sessionFlags().newSession()
	if err != nil {
		return nil, nil, err
	}
	sess.SetInput(message)
	reply, ok := sess.Submit(ctx)
	if !ok {
		return nil, nil, errors.New("nothing to send")
	}
	log.Debug().Str("component", "send").Str("endpoint", sess.Endpoint()).Msg("exchange settled")
	return sess, reply, nil
}

func readMessage(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	if !isatty.IsTerminal(os.Stdin.Fd()) {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", errors.Wrap(err, "read message from stdin")
		}
		return string(b), nil
	}

	prompt := &input.UI{
		Writer: os.Stderr,
		Reader: os.Stdin,
	}
	answer, err := prompt.Ask("Message", &input.Options{
		Required:  true,
		Loop:      true,
		HideOrder: true,
		ValidateFunc: func(answer string) error {
			if strings.TrimSpace(answer) == "" {
				return errors.New("message is empty")
			}
			return nil
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "ask for message")
	}
	return answer, nil
}
