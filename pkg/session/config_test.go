package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewConfigurationDefaults(t *testing.T) {
	require.Equal(t, DefaultEndpoint, NewConfiguration("").Endpoint())
	require.Equal(t, "http://example.com/chat", NewConfiguration("http://example.com/chat").Endpoint())
}

func TestSetEndpointIsNotValidated(t *testing.T) {
	c := NewConfiguration("")
	c.SetEndpoint("not a url")
	require.Equal(t, "not a url", c.Endpoint())
	c.SetEndpoint("")
	require.Equal(t, "", c.Endpoint())
}
