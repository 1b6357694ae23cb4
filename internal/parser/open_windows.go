//go:build windows

package parser

import "os"

// openLogFile opens a session log read-only. Windows has no
// O_NOFOLLOW, so symlinks are followed here.
func openLogFile(path string) (*os.File, error) {
	return os.Open(path)
}
