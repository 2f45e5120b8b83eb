package packetutils

// Logging for the codec and the tools.
//
// Message classes are log levels and charmbracelet/log picks the colour.
// Child loggers copy the level when they are made, so set it first.

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

var pkt_logger = log.NewWithOptions(os.Stderr, log.Options{ //nolint:exhaustruct
	ReportTimestamp: true,
	Level:           log.InfoLevel,
})

// SetLogOutput redirects all codec and tool logging.  Mostly for tests.
func SetLogOutput(w io.Writer) {
	pkt_logger.SetOutput(w)
}

// SetLogLevel accepts debug, info, warn, error or fatal.
func SetLogLevel(level string) error {
	var lvl, err = log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return err
	}
	pkt_logger.SetLevel(lvl)
	return nil
}

func component_logger(name string) *log.Logger {
	return pkt_logger.WithPrefix(name)
}
