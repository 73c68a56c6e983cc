//go:build !linux

package fd

import (
	"golang.org/x/sys/unix"

	"github.com/calvinalkan/sysown/pkg/result"
)

// Buffered returns the number of bytes ready to read (FIONREAD). Works on
// pipes, sockets and terminals.
func (f *FD) Buffered() result.Result[int] {
	return f.IoctlGetInt(unix.FIONREAD)
}
