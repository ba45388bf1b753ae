package dispatch

import (
	"github.com/go-go-golems/chatwidget/pkg/conversation"
)

// FallbackReply is recorded when a successful response names neither
// "response" nor "message".
const FallbackReply = "I received your message."

// Request is the JSON body posted to the chat endpoint. History holds every
// turn before Message, never Message itself.
type Request struct {
	Message string                      `json:"message"`
	History []conversation.HistoryEntry `json:"history"`
}

// Reply is a successfully decoded endpoint response.
type Reply struct {
	StatusCode int
	// Body is the decoded JSON document. It is any valid JSON value, not
	// necessarily an object.
	Body any
}

// Content picks the assistant text out of the reply: "response", then
// "message", then FallbackReply. Only non-empty strings count.
func (r *Reply) Content() string {
	if r == nil {
		return FallbackReply
	}
	obj, ok := r.Body.(map[string]any)
	if !ok {
		return FallbackReply
	}
	for _, field := range []string{"response", "message"} {
		if s, ok := obj[field].(string); ok && s != "" {
			return s
		}
	}
	return FallbackReply
}
