//go:build linux

package fd

import (
	"encoding/binary"

	"golang.org/x/sys/unix"

	"github.com/calvinalkan/sysown/pkg/errno"
	"github.com/calvinalkan/sysown/pkg/owner"
	"github.com/calvinalkan/sysown/pkg/result"
)

// Pair is the two ends of a pipe.
type Pair struct {
	R *FD
	W *FD
}

// Drop drops both ends.
func (p Pair) Drop() {
	p.R.Drop()
	p.W.Drop()
}

// Pipe creates a pipe with pipe2(2). flags may include [NonBlock];
// [CloseOnExec] is always added.
func Pipe(flags OpenFlag) result.Result[Pair] {
	var fds [2]int
	if err := unix.Pipe2(fds[:], int(flags|CloseOnExec)); err != nil {
		return result.Err[Pair](errno.FromError(err))
	}

	return result.Ok(Pair{R: New(fds[0]), W: New(fds[1])})
}

// Eventfd creates an eventfd counter with eventfd(2). flags may include
// [NonBlock].
func Eventfd(initval uint, flags OpenFlag) result.Result[*FD] {
	efdFlags := unix.EFD_CLOEXEC
	if flags.Has(NonBlock) {
		efdFlags |= unix.EFD_NONBLOCK
	}

	raw, err := unix.Eventfd(initval, efdFlags)
	if err != nil {
		return result.Err[*FD](errno.FromError(err))
	}

	return result.Ok(New(raw))
}

// Notify adds v to an eventfd counter.
func (f *FD) Notify(v uint64) errno.Code {
	var buf [8]byte

	binary.NativeEndian.PutUint64(buf[:], v)

	_, err := f.Write(buf[:])

	return errno.FromError(err)
}

// Counter reads and resets an eventfd counter. It blocks while the counter
// is zero unless the eventfd is non-blocking, in which case it reports EAGAIN.
func (f *FD) Counter() result.Result[uint64] {
	var buf [8]byte

	n, err := unix.Read(f.Raw(), buf[:])
	if err != nil {
		return result.Err[uint64](errno.FromError(err))
	}

	if n != len(buf) {
		return result.Err[uint64](errno.FromErrno(unix.EIO))
	}

	return result.Ok(binary.NativeEndian.Uint64(buf[:]))
}

// Memfd creates an anonymous memory-backed file with memfd_create(2).
func Memfd(name string) result.Result[*FD] {
	raw, err := unix.MemfdCreate(name, unix.MFD_CLOEXEC)
	if err != nil {
		return result.Err[*FD](errno.FromError(err))
	}

	return result.Ok(New(raw))
}

// DupTo makes dst refer to the same open file as f with dup3(2). dst keeps
// owning its descriptor number; the file it referred to before is closed by
// the kernel as part of the call. Both owners must be non-empty and distinct.
func (f *FD) DupTo(dst *FD) errno.Code {
	if f.Empty() || dst.Empty() {
		return errno.BadHandle
	}

	return owner.RetryInterrupted(func() error {
		return unix.Dup3(f.Raw(), dst.Raw(), unix.O_CLOEXEC)
	})
}
