package main

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/enso/internal/gestureload"
)

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCommand()
	for name, def := range map[string]string{
		"url":       "http://localhost:9080",
		"sessions":  "50",
		"attempts":  "3",
		"max-noise": "0.15",
		"verbose":   "false",
	} {
		f := cmd.Flags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, def, f.DefValue, name)
	}
}

func TestRootCommandRejectsInvalidConfig(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--sessions", "0", "--url", "http://127.0.0.1:1"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.True(t, errors.Is(err, gestureload.ErrInvalidConfig))
}
