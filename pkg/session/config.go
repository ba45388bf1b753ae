// Package session holds the live, user-editable settings of a widget session.
package session

import "sync"

// DefaultEndpoint is the chat endpoint a session starts with.
const DefaultEndpoint = "http://localhost:8000/chat"

// Configuration carries the endpoint the next exchange is sent to. Values
// are not validated here; a malformed endpoint only shows up when a request
// is attempted.
type Configuration struct {
	mu       sync.RWMutex
	endpoint string
}

// NewConfiguration returns a configuration targeting endpoint, or
// DefaultEndpoint when endpoint is empty.
func NewConfiguration(endpoint string) *Configuration {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Configuration{endpoint: endpoint}
}

func (c *Configuration) Endpoint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.endpoint
}

// SetEndpoint replaces the endpoint verbatim, including an empty value.
func (c *Configuration) SetEndpoint(endpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endpoint = endpoint
}
