// Package widget assembles a complete chat widget session: conversation,
// endpoint configuration, dispatch controller and view state, behind one
// object that a hosting surface renders and forwards user intents into.
package widget

import (
	"context"
	"strings"
	"time"

	"github.com/go-go-golems/chatwidget/pkg/conversation"
	"github.com/go-go-golems/chatwidget/pkg/dispatch"
	"github.com/go-go-golems/chatwidget/pkg/session"
	"github.com/go-go-golems/chatwidget/pkg/view"
)

type options struct {
	endpoint  string
	exchanger dispatch.Exchanger
	window    conversation.Window
	now       func() time.Time
}

type Option func(*options)

// WithEndpoint sets the endpoint the session starts with.
func WithEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = endpoint }
}

func WithExchanger(e dispatch.Exchanger) Option {
	return func(o *options) { o.exchanger = e }
}

// WithHistoryWindow limits the history sent with each request.
func WithHistoryWindow(w conversation.Window) Option {
	return func(o *options) { o.window = w }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

type Session struct {
	conv       *conversation.Conversation
	cfg        *session.Configuration
	controller *dispatch.Controller
	view       *view.State
}

func New(opts ...Option) *Session {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	var convOpts []conversation.Option
	ctrlOpts := []dispatch.Option{}
	if o.now != nil {
		convOpts = append(convOpts, conversation.WithClock(o.now))
		ctrlOpts = append(ctrlOpts, dispatch.WithClock(o.now))
	}
	if o.exchanger != nil {
		ctrlOpts = append(ctrlOpts, dispatch.WithExchanger(o.exchanger))
	}
	if o.window != nil {
		ctrlOpts = append(ctrlOpts, dispatch.WithWindow(o.window))
	}

	s := &Session{
		conv: conversation.New(convOpts...),
		cfg:  session.NewConfiguration(o.endpoint),
		view: view.New(),
	}
	ctrlOpts = append(ctrlOpts, dispatch.WithAcceptHook(s.view.ClearPendingInput))
	s.controller = dispatch.NewController(s.conv, s.cfg, ctrlOpts...)
	return s
}

func (s *Session) Controller() *dispatch.Controller { return s.controller }

func (s *Session) View() *view.State { return s.view }

// Messages returns a copy of the conversation.
func (s *Session) Messages() []conversation.Message { return s.conv.Messages() }

// LastReply returns the most recent assistant turn, greeting included.
func (s *Session) LastReply() (conversation.Message, bool) {
	return s.conv.LastByRole(conversation.RoleAssistant)
}

func (s *Session) Loading() bool { return s.controller.Loading() }

func (s *Session) Endpoint() string { return s.cfg.Endpoint() }

func (s *Session) SetEndpoint(endpoint string) { s.cfg.SetEndpoint(endpoint) }

func (s *Session) SetInput(text string) { s.view.SetPendingInput(text) }

func (s *Session) Input() string { return s.view.PendingInput() }

// CanSubmit reports whether Submit would be accepted right now.
func (s *Session) CanSubmit() bool {
	return strings.TrimSpace(s.view.PendingInput()) != "" && !s.controller.Loading()
}

// Submit sends the pending input and blocks until the exchange settles.
func (s *Session) Submit(ctx context.Context) (*conversation.Message, bool) {
	return s.controller.Send(ctx, s.view.PendingInput())
}

// BeginSubmit runs the synchronous half of Submit and hands back the
// exchange for the caller to run, typically from an event loop command.
func (s *Session) BeginSubmit() (*dispatch.Exchange, bool) {
	return s.controller.Begin(s.view.PendingInput())
}

func (s *Session) Minimize() bool { return s.view.Minimize() }

func (s *Session) Restore() bool { return s.view.Restore() }

func (s *Session) ToggleSettings() bool { return s.view.ToggleSettings() }

// NewChat replaces the conversation with a fresh greeting. It works whether
// or not the settings panel is open.
func (s *Session) NewChat() { s.controller.Reset() }

// Snapshot is a read-only copy of everything a host needs to render.
type Snapshot struct {
	Visibility   view.Visibility         `json:"visibility" yaml:"visibility"`
	SettingsOpen bool                    `json:"settingsOpen" yaml:"settingsOpen"`
	Loading      bool                    `json:"loading" yaml:"loading"`
	PendingInput string                  `json:"pendingInput" yaml:"pendingInput"`
	Endpoint     string                  `json:"endpoint" yaml:"endpoint"`
	Messages     []conversation.Message `json:"messages" yaml:"messages"`
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Visibility:   s.view.Visibility(),
		SettingsOpen: s.view.SettingsOpen(),
		Loading:      s.controller.Loading(),
		PendingInput: s.view.PendingInput(),
		Endpoint:     s.cfg.Endpoint(),
		Messages:     s.conv.Messages(),
	}
}
