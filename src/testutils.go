package packetutils

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertOutputContains runs one of the tool mains and checks what it printed
// on stdout.  Log lines are held back while it runs and only shown if the
// check fails, then logging goes back to stderr.
func AssertOutputContains(t *testing.T, command func(), expectedOutputContains string) {
	t.Helper()

	var logs bytes.Buffer
	SetLogOutput(&logs)

	var oldStdout = os.Stdout
	defer func() {
		os.Stdout = oldStdout
		SetLogOutput(os.Stderr)
	}()

	var r, w, pipeErr = os.Pipe()
	require.NoError(t, pipeErr)
	os.Stdout = w

	// Drain the pipe while the command runs so a chatty tool can't fill it.
	var captured = make(chan []byte)
	go func() {
		var b, _ = io.ReadAll(r)
		captured <- b
	}()

	command()

	w.Close() //nolint:gosec
	os.Stdout = oldStdout

	var output = string(<-captured)

	assert.Contains(t, output, expectedOutputContains, "log output:\n%s", logs.String())
}
