//go:build !windows

package parser

import (
	"os"
	"syscall"
)

// openLogFile opens a session log read-only. A symlink in the
// final path component fails with ELOOP.
func openLogFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_RDONLY|syscall.O_NOFOLLOW, 0)
}
