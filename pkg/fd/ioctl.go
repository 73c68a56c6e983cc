package fd

import (
	"golang.org/x/sys/unix"

	"github.com/calvinalkan/sysown/pkg/errno"
	"github.com/calvinalkan/sysown/pkg/result"
)

// IoctlGetInt issues an ioctl that fills an int.
func (f *FD) IoctlGetInt(req uint) result.Result[int] {
	v, err := unix.IoctlGetInt(f.Raw(), req)
	if err != nil {
		return result.Err[int](errno.FromError(err))
	}

	return result.Ok(v)
}

// IoctlSetInt issues an ioctl that takes an int by value.
func (f *FD) IoctlSetInt(req uint, value int) errno.Code {
	return errno.FromError(unix.IoctlSetInt(f.Raw(), req, value))
}
