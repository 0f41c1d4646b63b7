//go:build windows

package progress

import "golang.org/x/sys/windows"

// IsTerminal reports whether fd refers to a console, mirroring the
// teacher's terminal_windows.go use of the console-mode APIs.
func IsTerminal(fd int) bool {
	var mode uint32
	err := windows.GetConsoleMode(windows.Handle(fd), &mode)
	return err == nil
}
