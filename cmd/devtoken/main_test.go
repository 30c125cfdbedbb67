package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lalith-99/teamsync/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevToken(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs([]string{"--secret", "s3cret", "--ttl", "1h", "user001"})
	require.NoError(t, cmd.Execute())

	claims, err := auth.ParseToken(strings.TrimSpace(out.String()), "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "user001", claims.Username)
}

func TestDevTokenNeedsUsername(t *testing.T) {
	cmd := newRootCmd(&bytes.Buffer{})
	cmd.SetArgs([]string{"--secret", "s3cret"})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}
