//go:build !windows

package progress

import "golang.org/x/sys/unix"

// IsTerminal reports whether fd refers to a terminal, matching the
// teacher's per-platform terminal detection split (terminal_unix.go /
// terminal_windows.go) but via x/sys/unix's ioctl wrapper rather than
// a raw syscall, since this package only needs a yes/no, not raw mode.
func IsTerminal(fd int) bool {
	_, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	return err == nil
}
