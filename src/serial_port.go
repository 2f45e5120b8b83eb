package packetutils

/*------------------------------------------------------------------
 *
 * Purpose:   	Serial port to and from the modem, and push to talk.
 *
 * Description:	Many hardware modems present a plain serial port that
 *		takes the bytes to send, or gives the bytes received.
 *		Transmitters are often keyed with the RTS or DTR line of
 *		the same or another serial port.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/term"
	"golang.org/x/sys/unix"
)

/*-------------------------------------------------------------------
 *
 * Name:	serial_port_open
 *
 * Purpose:	Open serial port.
 *
 * Inputs:	devicename	- Usually like /dev/ttyUSB0.
 *				  Could be /dev/rfcomm0 for Bluetooth.
 *
 *		baud		- Speed.  1200, 4800, 9600 bps, etc.
 *				  If 0, leave it alone.
 *
 *---------------------------------------------------------------*/

func serial_port_open(devicename string, baud int) (*term.Term, error) {
	var fd, err = term.Open(devicename, term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("could not open serial port %s: %w", devicename, err)
	}

	switch baud {
	case 0: /* Leave it alone. */
	case 1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200, 230400, 460800:
		err = fd.SetSpeed(baud)
	default:
		component_logger("serial").Warn("Unsupported speed, using 9600.", "device", devicename, "baud", baud)
		err = fd.SetSpeed(9600)
	}
	if err != nil {
		fd.Close()
		return nil, fmt.Errorf("could not set speed on %s: %w", devicename, err)
	}

	component_logger("serial").Debug("Opened serial port", "device", devicename, "baud", baud)
	return fd, nil
}

/*-------------------------------------------------------------------
 *
 * Name:	PTT
 *
 * Purpose:	Key a transmitter with a serial control line.
 *
 * Description:	The line is asserted for the whole transmission and
 *		dropped at the end.  Invert for interfaces where the
 *		transistor pulls the other way.
 *
 *--------------------------------------------------------------------*/

type PTTLine int

const (
	PTT_LINE_RTS PTTLine = iota
	PTT_LINE_DTR
)

func ParsePTTLine(s string) (PTTLine, error) {
	var line = strings.ToUpper(strings.TrimPrefix(s, "-"))
	switch line {
	case "RTS":
		return PTT_LINE_RTS, nil
	case "DTR":
		return PTT_LINE_DTR, nil
	default:
		return PTT_LINE_RTS, fmt.Errorf("PTT line must be RTS or DTR, not %q", s)
	}
}

type PTT struct {
	fp     *os.File
	line   PTTLine
	invert bool
}

// OpenPTT opens a serial device just for its control line.
// A leading "-" on line means inverted, e.g. "-RTS".
func OpenPTT(devicename string, line string) (*PTT, error) {
	var l, err = ParsePTTLine(line)
	if err != nil {
		return nil, err
	}

	var fp, openErr = os.OpenFile(devicename, os.O_RDWR|unix.O_NOCTTY, 0)
	if openErr != nil {
		return nil, fmt.Errorf("could not open %s for PTT: %w", devicename, openErr)
	}

	var p = &PTT{fp: fp, line: l, invert: strings.HasPrefix(line, "-")}

	// Make sure the transmitter starts out unkeyed.
	if err := p.Set(false); err != nil {
		fp.Close()
		return nil, err
	}
	return p, nil
}

func (p *PTT) Set(on bool) error {
	var bit = unix.TIOCM_RTS
	if p.line == PTT_LINE_DTR {
		bit = unix.TIOCM_DTR
	}
	return tiocm(int(p.fp.Fd()), bit, on != p.invert) //nolint:gosec
}

func (p *PTT) Close() error {
	var err = p.Set(false)
	var closeErr = p.fp.Close()
	if err != nil {
		return err
	}
	return closeErr
}

func tiocm(fd int, bit int, on bool) error {
	var stuff, err = unix.IoctlGetInt(fd, unix.TIOCMGET)
	if err != nil {
		return fmt.Errorf("TIOCMGET: %w", err)
	}
	if on {
		stuff |= bit
	} else {
		stuff &= ^bit
	}
	if err := unix.IoctlSetInt(fd, unix.TIOCMSET, stuff); err != nil {
		return fmt.Errorf("TIOCMSET: %w", err)
	}
	return nil
}
