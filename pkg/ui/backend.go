package ui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/chatwidget/pkg/conversation"
	"github.com/go-go-golems/chatwidget/pkg/widget"
)

// ExchangeSettledMsg is delivered to the program once an exchange has been
// recorded in the conversation and loading has been cleared.
type ExchangeSettledMsg struct {
	Reply *conversation.Message
}

// DispatchBackend runs widget exchanges from a bubbletea program. The
// synchronous half of a send happens inside Update, the network half runs as
// a tea.Cmd.
type DispatchBackend struct {
	session *widget.Session
	ctx     context.Context

	mu     sync.Mutex
	cancel context.CancelFunc
	gen    uint64
}

func NewDispatchBackend(ctx context.Context, session *widget.Session) *DispatchBackend {
	if ctx == nil {
		ctx = context.Background()
	}
	return &DispatchBackend{
		session: session,
		ctx:     ctx,
	}
}

// Start submits the session's pending input. It returns false, and no
// command, when the submission was rejected.
func (b *DispatchBackend) Start() (tea.Cmd, bool) {
	ex, ok := b.session.BeginSubmit()
	if !ok {
		return nil, false
	}

	ctx, cancel := context.WithCancel(b.ctx)
	b.mu.Lock()
	b.gen++
	gen := b.gen
	b.cancel = cancel
	b.mu.Unlock()

	return func() tea.Msg {
		defer func() {
			b.mu.Lock()
			// a newer exchange may already own the slot
			if b.gen == gen {
				b.cancel = nil
			}
			b.mu.Unlock()
			cancel()
		}()
		return ExchangeSettledMsg{Reply: ex.Do(ctx)}
	}, true
}

// Kill cancels the exchange in flight, if any. The exchange still settles
// with an error turn and clears loading.
func (b *DispatchBackend) Kill() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel == nil {
		log.Debug().Str("component", "ui").Msg("no exchange in flight")
		return
	}
	b.cancel()
	b.cancel = nil
}

// IsFinished reports whether no exchange is in flight.
func (b *DispatchBackend) IsFinished() bool {
	return !b.session.Loading()
}
