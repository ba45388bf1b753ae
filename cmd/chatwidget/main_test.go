package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandWiresLoggingAndSubcommands(t *testing.T) {
	rootCmd, err := newRootCommand()
	require.NoError(t, err)

	for _, name := range []string{"log-level", "log-format", "log-file"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
	assert.Nil(t, rootCmd.PersistentFlags().Lookup("endpoint"))

	for _, name := range []string{"tui", "send", "ask", "serve"} {
		sub, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
	for _, name := range []string{"tui", "send", "ask"} {
		sub, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		assert.NotNil(t, sub.Flags().Lookup("endpoint"), name)
	}

	send, _, err := rootCmd.Find([]string{"send"})
	require.NoError(t, err)
	assert.NotNil(t, send.Flags().Lookup("output"))
	require.NoError(t, send.ParseFlags([]string{"--log-level", "debug"}))
	require.NoError(t, rootCmd.PersistentPreRunE(send, nil))
}
