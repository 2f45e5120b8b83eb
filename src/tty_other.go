//go:build !linux

package packetutils

func is_terminal(fd uintptr) bool {
	return false
}
