package conversation

import (
	"sync"
	"time"
)

// Conversation is the ordered message history of one session.
// The zero value is not usable; create one with New.
type Conversation struct {
	mu       sync.RWMutex
	messages []Message
	now      func() time.Time
}

type Option func(*Conversation)

// WithClock overrides the time source used for greeting timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Conversation) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a conversation seeded with the assistant greeting.
func New(opts ...Option) *Conversation {
	c := &Conversation{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	c.messages = []Message{c.greeting()}
	return c
}

func (c *Conversation) greeting() Message {
	return NewMessage(RoleAssistant, Greeting, c.now())
}

// Append pushes a copy of msg to the end of the history. It never fails and
// does not deduplicate.
func (c *Conversation) Append(msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
}

// Reset discards the whole history and re-seeds it with a new greeting.
func (c *Conversation) Reset() {
	g := c.greeting()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = []Message{g}
}

// Messages returns a copy of the history in chronological order. Changing
// the returned values does not affect the conversation.
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Last returns the most recent message. A conversation is never empty, so
// the second return value is only false for a nil receiver.
func (c *Conversation) Last() (Message, bool) {
	if c == nil {
		return Message{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// LastByRole returns the most recent message authored by role.
func (c *Conversation) LastByRole(role Role) (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == role {
			return c.messages[i], true
		}
	}
	return Message{}, false
}

// History converts the current messages to wire entries and applies w.
// A nil window means unbounded.
func (c *Conversation) History(w Window) []HistoryEntry {
	c.mu.RLock()
	entries := make([]HistoryEntry, 0, len(c.messages))
	for _, m := range c.messages {
		entries = append(entries, HistoryEntry{Role: m.Role, Content: m.Content})
	}
	c.mu.RUnlock()

	if w == nil {
		return entries
	}
	return w.Apply(entries)
}
