package conversation

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Greeting is the assistant turn every fresh conversation starts with.
const Greeting = "Hello! I'm your AI assistant. How can I help you today?"

type MessageID string

// Message is one authored turn. Content is never mutated after creation.
type Message struct {
	ID        MessageID `json:"id" yaml:"id"`
	Role      Role      `json:"role" yaml:"role"`
	Content   string    `json:"content" yaml:"content"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// NewMessage stamps a message with a time-ordered id and the given creation time.
func NewMessage(role Role, content string, now time.Time) Message {
	return Message{
		ID:        newMessageID(),
		Role:      role,
		Content:   content,
		Timestamp: now,
	}
}

// newMessageID returns a UUIDv7, which embeds the creation time and stays
// distinct for messages created within the same millisecond.
func newMessageID() MessageID {
	id, err := uuid.NewV7()
	if err != nil {
		return MessageID(uuid.NewString())
	}
	return MessageID(id.String())
}

// HistoryEntry is the wire view of a message: no id, no timestamp.
type HistoryEntry struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}
