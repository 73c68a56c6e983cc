// Package fd provides the file-descriptor resource kind: an [owner.Owner]
// over an int descriptor whose policy calls close(2).
//
// Acquisition functions return a [result.Result] holding a *FD:
//
//	r := fd.Open("data.bin", fd.ReadWrite|fd.Create, 0o644)
//	f, err := r.Get()
//	if err != nil {
//	    return err
//	}
//	defer f.Drop()
//
// FD implements [io.Reader], [io.Writer], [io.Seeker], [io.ReaderAt] and
// [io.WriterAt], so it works with bufio and io.Copy. Errors from those
// methods are plain [unix.Errno] values.
//
// Every descriptor acquired here is close-on-exec, matching the os package.
package fd

import (
	"io"
	"os"

	"golang.org/x/sys/unix"

	"github.com/calvinalkan/sysown/pkg/errno"
	"github.com/calvinalkan/sysown/pkg/owner"
	"github.com/calvinalkan/sysown/pkg/result"
)

// Null is the invalid descriptor.
const Null = -1

// Policy releases a descriptor with close(2), retrying on EINTR.
type Policy struct{}

// Null implements [owner.Policy].
func (Policy) Null() int { return Null }

// Kind implements [owner.Policy].
func (Policy) Kind() string { return "fd" }

// Release implements [owner.Policy].
func (Policy) Release(h int) errno.Code {
	return owner.RetryInterrupted(func() error { return unix.Close(h) })
}

// FD owns one file descriptor.
//
// Owner methods (Raw, Release, Close, Drop, Empty, Valid, Reset) are
// promoted from the embedded [owner.Owner]. The Owner must remain the first
// field so leak tracking sees the allocation's base pointer.
type FD struct {
	owner.Owner[int, Policy]
}

// New takes ownership of raw. A negative raw yields an Empty FD.
func New(raw int) *FD {
	if raw < 0 {
		raw = Null
	}

	f := &FD{}
	f.Init(Policy{}, raw)

	return f
}

// Open opens path. [CloseOnExec] is always added to flags.
func Open(path string, flags OpenFlag, mode uint32) result.Result[*FD] {
	raw, err := unix.Open(path, int(flags|CloseOnExec), mode)
	if err != nil {
		return result.Err[*FD](errno.FromError(err))
	}

	return result.Ok(New(raw))
}

// OpenAt opens path relative to the directory dir. A nil dir resolves
// relative paths against the working directory.
func OpenAt(dir *FD, path string, flags OpenFlag, mode uint32) result.Result[*FD] {
	dirfd := unix.AT_FDCWD
	if dir != nil {
		if dir.Empty() {
			return result.Err[*FD](errno.BadHandle)
		}

		dirfd = dir.Raw()
	}

	raw, err := unix.Openat(dirfd, path, int(flags|CloseOnExec), mode)
	if err != nil {
		return result.Err[*FD](errno.FromError(err))
	}

	return result.Ok(New(raw))
}

// Move transfers ownership to a new FD and leaves f Empty.
func (f *FD) Move() *FD {
	dst := New(Null)
	f.TransferTo(&dst.Owner)

	return dst
}

// Dup duplicates the descriptor. The copy is an independent owner.
func (f *FD) Dup() result.Result[*FD] {
	if f.Empty() {
		return result.Err[*FD](errno.BadHandle)
	}

	raw, err := unix.FcntlInt(uintptr(f.Raw()), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return result.Err[*FD](errno.FromError(err))
	}

	return result.Ok(New(raw))
}

// Read implements [io.Reader]. A zero-byte read at end of file returns
// [io.EOF].
func (f *FD) Read(p []byte) (int, error) {
	n, err := unix.Read(f.Raw(), p)
	if err != nil {
		return 0, errno.FromError(err).Err()
	}

	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}

	return n, nil
}

// Write implements [io.Writer]. It loops over short writes and returns an
// error whenever fewer than len(p) bytes were written.
func (f *FD) Write(p []byte) (int, error) {
	var written int

	for written < len(p) {
		n, err := unix.Write(f.Raw(), p[written:])
		if err != nil {
			return written, errno.FromError(err).Err()
		}

		if n == 0 {
			return written, io.ErrShortWrite
		}

		written += n
	}

	return written, nil
}

// ReadAt implements [io.ReaderAt] with pread(2).
func (f *FD) ReadAt(p []byte, off int64) (int, error) {
	var read int

	for read < len(p) {
		n, err := unix.Pread(f.Raw(), p[read:], off+int64(read))
		if err != nil {
			return read, errno.FromError(err).Err()
		}

		if n == 0 {
			return read, io.EOF
		}

		read += n
	}

	return read, nil
}

// WriteAt implements [io.WriterAt] with pwrite(2).
func (f *FD) WriteAt(p []byte, off int64) (int, error) {
	var written int

	for written < len(p) {
		n, err := unix.Pwrite(f.Raw(), p[written:], off+int64(written))
		if err != nil {
			return written, errno.FromError(err).Err()
		}

		if n == 0 {
			return written, io.ErrShortWrite
		}

		written += n
	}

	return written, nil
}

// Seek implements [io.Seeker] with lseek(2).
func (f *FD) Seek(offset int64, whence int) (int64, error) {
	off, err := unix.Seek(f.Raw(), offset, whence)
	if err != nil {
		return 0, errno.FromError(err).Err()
	}

	return off, nil
}

// Sync flushes the file to stable storage with fsync(2).
func (f *FD) Sync() errno.Code {
	return errno.FromError(unix.Fsync(f.Raw()))
}

// Truncate sets the file size with ftruncate(2).
func (f *FD) Truncate(size int64) errno.Code {
	return errno.FromError(unix.Ftruncate(f.Raw(), size))
}

// Stat returns fstat(2) information.
func (f *FD) Stat() result.Result[unix.Stat_t] {
	var st unix.Stat_t
	if err := unix.Fstat(f.Raw(), &st); err != nil {
		return result.Err[unix.Stat_t](errno.FromError(err))
	}

	return result.Ok(st)
}

// SetNonblock toggles O_NONBLOCK.
func (f *FD) SetNonblock(nonblocking bool) errno.Code {
	return errno.FromError(unix.SetNonblock(f.Raw(), nonblocking))
}

// CloseOnExec reports whether FD_CLOEXEC is set.
func (f *FD) CloseOnExec() result.Result[bool] {
	flags, err := unix.FcntlInt(uintptr(f.Raw()), unix.F_GETFD, 0)
	if err != nil {
		return result.Err[bool](errno.FromError(err))
	}

	return result.Ok(flags&unix.FD_CLOEXEC != 0)
}

// File hands the descriptor to a new [os.File] named name. f is released
// and left Empty; the os.File owns the descriptor from then on. Returns nil
// if f is Empty.
func (f *FD) File(name string) *os.File {
	if f.Empty() {
		return nil
	}

	return os.NewFile(uintptr(f.Release()), name)
}

var (
	_ io.ReadWriteSeeker = (*FD)(nil)
	_ io.ReaderAt        = (*FD)(nil)
	_ io.WriterAt        = (*FD)(nil)
)
