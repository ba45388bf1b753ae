// Package conversation holds the message history of one widget session.
//
// A Conversation is an ordered, append-only list of Messages that always
// starts with an assistant greeting. It only grows through Append and is only
// replaced wholesale through Reset, which seeds a fresh greeting with a new
// identity. The outbound history sent to a chat endpoint is derived from it
// through History, optionally shaped by a Window.
package conversation
