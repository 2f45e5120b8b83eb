package packetutils

/*------------------------------------------------------------------
 *
 * Purpose:	Save every frame the decoder finds to a log file.
 *
 * Description: One CSV line per frame, for importing into a
 *		spreadsheet and working out what the channel is doing.
 *
 *		The file name may contain strftime conversions, e.g.
 *
 *			rx-%Y-%m-%d.csv
 *
 *		which gives a new file each day.  A header line is only
 *		written when a file is created.
 *
 *------------------------------------------------------------------*/

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/lestrrat-go/strftime"
)

var framelog_header = []string{"utime", "isotime", "type", "group", "slot", "crc_ok", "sync_errors", "bit_shift"}

type FrameLog struct {
	pattern *strftime.Strftime
	now     func() time.Time

	fp        *os.File
	w         *csv.Writer
	open_name string
	failing   bool // Last write failed and was logged.
}

func NewFrameLog(name_pattern string) (*FrameLog, error) {
	var p, err = strftime.New(name_pattern)
	if err != nil {
		return nil, fmt.Errorf("frame log name %q: %w", name_pattern, err)
	}
	return &FrameLog{pattern: p, now: time.Now}, nil //nolint:exhaustruct
}

// Write adds one line.  Errors are logged, not returned, so it can be
// used directly as a Decoder.OnFrame callback.
func (l *FrameLog) Write(ev FrameEvent) {
	var now = l.now().UTC()
	var fname = l.pattern.FormatString(now)

	// Close current file if name has changed.
	if l.fp != nil && fname != l.open_name {
		l.Close()
	}

	if l.fp == nil {
		if err := l.open(fname); err != nil {
			component_logger("framelog").Error("Can't open frame log", "file", fname, "err", err)
			return
		}
	}

	var err = l.w.Write([]string{
		strconv.FormatInt(now.Unix(), 10),
		now.Format("2006-01-02T15:04:05Z"),
		ev.Type.String(),
		strconv.Itoa(int(ev.GroupID)),
		strconv.Itoa(int(ev.SlotID)),
		strconv.FormatBool(ev.CRCOK),
		strconv.Itoa(ev.SyncDistance),
		strconv.Itoa(ev.BitShift),
	})
	if err == nil {
		l.w.Flush()
		err = l.w.Error()
	}

	// Say so once, not for every frame while the disk stays full.
	if err != nil {
		if !l.failing {
			component_logger("framelog").Error("Can't write frame log", "file", fname, "err", err)
		}
		l.failing = true
		return
	}
	l.failing = false
}

func (l *FrameLog) open(fname string) error {
	// See if file already exists.  Header only goes at the top of a new one.
	var _, statErr = os.Stat(fname)
	var already_there = statErr == nil

	var fp, err = os.OpenFile(fname, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0644) //nolint:gosec
	if err != nil {
		return err
	}

	component_logger("framelog").Info("Opening frame log", "file", fname)

	l.fp = fp
	l.open_name = fname
	l.w = csv.NewWriter(fp)

	if !already_there {
		if err := l.w.Write(framelog_header); err != nil {
			return err
		}
		l.w.Flush()
	}
	return l.w.Error()
}

func (l *FrameLog) Close() error {
	if l.fp == nil {
		return nil
	}
	l.w.Flush()
	var err = l.fp.Close()
	l.fp = nil
	l.w = nil
	l.open_name = ""
	return err
}
