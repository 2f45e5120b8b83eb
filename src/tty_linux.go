package packetutils

import "golang.org/x/sys/unix"

// is_terminal is true when fd is a tty, so a status line can be redrawn in place.
func is_terminal(fd uintptr) bool {
	var _, err = unix.IoctlGetTermios(int(fd), unix.TCGETS) //nolint:gosec
	return err == nil
}
