package cmds

import (
	"net/http"
	"time"

	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/fields"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/weaviate/tiktoken-go"

	"github.com/go-go-golems/chatwidget/pkg/conversation"
	"github.com/go-go-golems/chatwidget/pkg/dispatch"
	"github.com/go-go-golems/chatwidget/pkg/session"
	"github.com/go-go-golems/chatwidget/pkg/widget"
)

// sessionFlags are shared by every command that talks to an endpoint.
type sessionFlags struct {
	endpoint        string
	historyMessages int
	historyTokens   int
	timeout         time.Duration
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.endpoint, "endpoint", session.DefaultEndpoint, "chat endpoint URL")
	cmd.Flags().IntVar(&f.historyMessages, "history-messages", 0, "send at most this many past turns (0: all)")
	cmd.Flags().IntVar(&f.historyTokens, "history-tokens", 0, "send at most this many cl100k_base tokens of past turns (0: no limit)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "HTTP timeout per exchange (0: none)")
}

// ExchangeSettings is the glazed view of sessionFlags plus the message
// arguments, shared by send and ask.
type ExchangeSettings struct {
	Endpoint        string   `glazed:"endpoint"`
	HistoryMessages int      `glazed:"history-messages"`
	HistoryTokens   int      `glazed:"history-tokens"`
	TimeoutSeconds  int      `glazed:"timeout-seconds"`
	Message         []string `glazed:"message"`
}

func (s *ExchangeSettings) sessionFlags() *sessionFlags {
	return &sessionFlags{
		endpoint:        s.Endpoint,
		historyMessages: s.HistoryMessages,
		historyTokens:   s.HistoryTokens,
		timeout:         time.Duration(s.TimeoutSeconds) * time.Second,
	}
}

// newExchangeDescription describes a one-shot exchange command. opts can add
// output sections.
func newExchangeDescription(name, short, long string, opts ...cmds.CommandDescriptionOption) *cmds.CommandDescription {
	base := []cmds.CommandDescriptionOption{
		cmds.WithShort(short),
		cmds.WithLong(long),
		cmds.WithFlags(
			fields.New(
				"endpoint",
				fields.TypeString,
				fields.WithDefault(session.DefaultEndpoint),
				fields.WithHelp("Chat endpoint URL"),
			),
			fields.New(
				"history-messages",
				fields.TypeInteger,
				fields.WithDefault(0),
				fields.WithHelp("Send at most this many past turns (0 = all)"),
			),
			fields.New(
				"history-tokens",
				fields.TypeInteger,
				fields.WithDefault(0),
				fields.WithHelp("Send at most this many cl100k_base tokens of past turns (0 = no limit)"),
			),
			fields.New(
				"timeout-seconds",
				fields.TypeInteger,
				fields.WithDefault(0),
				fields.WithHelp("HTTP timeout per exchange in seconds (0 = none)"),
			),
		),
		cmds.WithArguments(
			fields.New(
				"message",
				fields.TypeStringList,
				fields.WithDefault([]string{}),
				fields.WithHelp("Message to send. Read from stdin, or asked for on a terminal, when omitted"),
			),
		),
	}
	return cmds.NewCommandDescription(name, append(base, opts...)...)
}

func (f *sessionFlags) window() (conversation.Window, error) {
	switch {
	case f.historyMessages > 0 && f.historyTokens > 0:
		return nil, errors.New("--history-messages and --history-tokens are mutually exclusive")
	case f.historyTokens > 0:
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, errors.Wrap(err, "load cl100k_base encoding")
		}
		return conversation.TokenBudgetWindow{
			Budget: f.historyTokens,
			Count: func(text string) int {
				return len(enc.Encode(text, nil, nil))
			},
		}, nil
	case f.historyMessages > 0:
		return conversation.LastN{Max: f.historyMessages}, nil
	}
	return conversation.Unbounded{}, nil
}

func (f *sessionFlags) newSession() (*widget.Session, error) {
	w, err := f.window()
	if err != nil {
		return nil, err
	}
	return widget.New(
		widget.WithEndpoint(f.endpoint),
		widget.WithExchanger(dispatch.NewHTTPExchanger(&http.Client{Timeout: f.timeout})),
		widget.WithHistoryWindow(w),
	), nil
}
