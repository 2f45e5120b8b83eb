package packetutils

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePTTLine(t *testing.T) {
	var tests = []struct {
		in   string
		want PTTLine
		ok   bool
	}{
		{"RTS", PTT_LINE_RTS, true},
		{"rts", PTT_LINE_RTS, true},
		{"-RTS", PTT_LINE_RTS, true},
		{"DTR", PTT_LINE_DTR, true},
		{"-dtr", PTT_LINE_DTR, true},
		{"CTS", PTT_LINE_RTS, false},
		{"", PTT_LINE_RTS, false},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			var got, err = ParsePTTLine(tc.in)
			if !tc.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestOpenPTTErrors(t *testing.T) {
	var _, err = OpenPTT("/dev/null", "GPIO")
	require.ErrorContains(t, err, "RTS or DTR")

	_, err = OpenPTT(filepath.Join(t.TempDir(), "nosuchdevice"), "RTS")
	require.ErrorContains(t, err, "for PTT")
}

func TestSerialPortOpenMissing(t *testing.T) {
	var _, err = serial_port_open(filepath.Join(t.TempDir(), "ttyNONE"), 9600)
	require.Error(t, err)
}

func TestPtyPort(t *testing.T) {
	var link = filepath.Join(t.TempDir(), "pktrx")
	var p, err = OpenPtyPort(link)
	require.NoError(t, err)

	var target, linkErr = os.Readlink(link)
	require.NoError(t, linkErr)
	assert.Equal(t, p.SlaveName(), target)

	var app, openErr = os.Open(link) //nolint:gosec
	require.NoError(t, openErr)
	defer app.Close()

	var _, writeErr = p.Write([]byte("recovered\n"))
	require.NoError(t, writeErr)

	var line, readErr = bufio.NewReader(app).ReadString('\n')
	require.NoError(t, readErr)
	assert.Equal(t, "recovered\n", line)

	require.NoError(t, p.Close())
	var _, statErr = os.Lstat(link)
	assert.True(t, os.IsNotExist(statErr))
}
