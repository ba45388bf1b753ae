package dispatch

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/chatwidget/pkg/conversation"
	"github.com/go-go-golems/chatwidget/pkg/session"
)

// Controller runs send cycles for one session. It is the only writer of the
// conversation and of the loading flag, and allows at most one exchange in
// flight at a time.
type Controller struct {
	conv      *conversation.Conversation
	cfg       *session.Configuration
	exchanger Exchanger
	window    conversation.Window
	now       func() time.Time
	onAccept  func()

	mu      sync.Mutex
	loading bool
}

type Option func(*Controller)

// WithExchanger replaces the HTTP exchanger, mostly for tests and embedders
// with their own transport.
func WithExchanger(e Exchanger) Option {
	return func(c *Controller) {
		if e != nil {
			c.exchanger = e
		}
	}
}

// WithWindow shapes the history sent with each request. The conversation
// itself is never truncated.
func WithWindow(w conversation.Window) Option {
	return func(c *Controller) {
		c.window = w
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithAcceptHook registers a callback run once a send has been accepted and
// the user message appended. Hosts use it to clear their input buffer.
func WithAcceptHook(f func()) Option {
	return func(c *Controller) {
		c.onAccept = f
	}
}

func NewController(conv *conversation.Conversation, cfg *session.Configuration, opts ...Option) *Controller {
	c := &Controller{
		conv:      conv,
		cfg:       cfg,
		exchanger: NewHTTPExchanger(nil),
		window:    conversation.Unbounded{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Conversation() *conversation.Conversation { return c.conv }

func (c *Controller) Configuration() *session.Configuration { return c.cfg }

// Loading reports whether an exchange is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Reset starts a new chat. It is allowed while an exchange is in flight; the
// pending reply then lands in the new conversation.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conv.Reset()
}

// Send runs a full cycle: Begin followed by Do. The returned message is the
// assistant (or error) turn; ok is false when the input was rejected, in
// which case nothing changed.
func (c *Controller) Send(ctx context.Context, rawInput string) (*conversation.Message, bool) {
	ex, ok := c.Begin(rawInput)
	if !ok {
		return nil, false
	}
	return ex.Do(ctx), true
}

// Begin performs the synchronous half of a send: it validates the input,
// appends the user message, raises loading and freezes the request payload.
// Empty input or an exchange already in flight makes it a no-op.
func (c *Controller) Begin(rawInput string) (*Exchange, bool) {
	content := strings.TrimSpace(rawInput)
	if content == "" {
		return nil, false
	}

	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		log.Debug().Str("component", "dispatch").Msg("send rejected, exchange in flight")
		return nil, false
	}
	history := c.conv.History(c.window)
	if history == nil {
		history = []conversation.HistoryEntry{}
	}
	userMsg := conversation.NewMessage(conversation.RoleUser, content, c.now())
	c.conv.Append(userMsg)
	c.loading = true
	c.mu.Unlock()

	if c.onAccept != nil {
		c.onAccept()
	}

	return &Exchange{
		c:           c,
		UserMessage: userMsg,
		Request: Request{
			Message: content,
			History: history,
		},
	}, true
}

func (c *Controller) record(msg conversation.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conv.Append(msg)
}

func (c *Controller) finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
}

// Exchange is an accepted send whose network half has not run yet.
type Exchange struct {
	c    *Controller
	once sync.Once

	UserMessage conversation.Message
	Request     Request
}

// Do posts the request to the configured endpoint and records the outcome
// as an assistant message. Failures never escape: they become an "Error: ..."
// turn. Loading is cleared on every exit path, panics included. The returned
// message is a copy of the recorded turn. Calling Do more than once returns
// nil after the first call.
func (e *Exchange) Do(ctx context.Context) *conversation.Message {
	var reply *conversation.Message
	e.once.Do(func() {
		reply = e.run(ctx)
	})
	return reply
}

func (e *Exchange) run(ctx context.Context) *conversation.Message {
	c := e.c
	defer c.finish()

	endpoint := c.cfg.Endpoint()
	logger := log.With().
		Str("component", "dispatch").
		Str("endpoint", endpoint).
		Str("user_message_id", string(e.UserMessage.ID)).
		Logger()
	logger.Debug().Int("history", len(e.Request.History)).Msg("starting exchange")

	var content string
	res, err := c.exchanger.Exchange(ctx, endpoint, &e.Request)
	if err != nil {
		content = FailureContent(err)
	} else {
		content = res.Content()
	}

	msg := conversation.NewMessage(conversation.RoleAssistant, content, c.now())
	c.record(msg)

	logger.Debug().
		Str("failure", string(Classify(err))).
		Str("assistant_message_id", string(msg.ID)).
		Msg("exchange settled")

	return &msg
}
