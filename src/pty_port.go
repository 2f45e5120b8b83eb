package packetutils

/*------------------------------------------------------------------
 *
 * Purpose:	Pseudo terminal so other programs can take the
 *		recovered byte stream as if it came from a serial port.
 *
 * Description:	We write to the master side.  The application opens
 *		the slave side, whose name is logged, and optionally a
 *		symlink with a fixed name pointing at it.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"os"

	"github.com/creack/pty"
)

type PtyPort struct {
	master  *os.File
	slave   *os.File
	symlink string
}

func OpenPtyPort(symlink string) (*PtyPort, error) {
	var ptmx, pts, err = pty.Open()
	if err != nil {
		return nil, fmt.Errorf("could not create pseudo terminal: %w", err)
	}

	var p = &PtyPort{master: ptmx, slave: pts, symlink: ""}
	var logger = component_logger("pty")

	if symlink != "" {
		// Stale link from last time.
		os.Remove(symlink)
		if err := os.Symlink(pts.Name(), symlink); err != nil {
			logger.Warn("Failed to create symlink", "link", symlink, "err", err)
		} else {
			p.symlink = symlink
			logger.Info("Created symlink", "link", symlink, "target", pts.Name())
		}
	}

	logger.Info("Virtual serial port available", "name", pts.Name())
	return p, nil
}

// SlaveName is the device an application should open.
func (p *PtyPort) SlaveName() string {
	return p.slave.Name()
}

func (p *PtyPort) Write(data []byte) (int, error) {
	return p.master.Write(data)
}

func (p *PtyPort) Read(data []byte) (int, error) {
	return p.master.Read(data)
}

func (p *PtyPort) Close() error {
	if p.symlink != "" {
		os.Remove(p.symlink)
	}
	p.slave.Close()
	return p.master.Close()
}
