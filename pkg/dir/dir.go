// Package dir provides the directory-stream resource kind.
//
// A [Dir] owns an open directory and the read buffer positioned inside it.
// The raw handle is a pointer to that stream state, so the null sentinel is
// nil. Releasing a stream closes its descriptor with EINTR retry.
package dir

import (
	"errors"
	"io"
	"iter"

	"golang.org/x/sys/unix"

	"github.com/calvinalkan/sysown/pkg/errno"
	"github.com/calvinalkan/sysown/pkg/fd"
	"github.com/calvinalkan/sysown/pkg/owner"
	"github.com/calvinalkan/sysown/pkg/result"
)

const bufSize = 8192

// Stream is the raw directory handle: the descriptor plus buffered entries
// not yet returned by Next.
type Stream struct {
	fd      int
	buf     []byte
	pending []Entry
}

// Fd returns the underlying descriptor.
func (s *Stream) Fd() int { return s.fd }

// Policy releases a stream by closing its descriptor.
type Policy struct{}

// Null implements [owner.Policy].
func (Policy) Null() *Stream { return nil }

// Kind implements [owner.Policy].
func (Policy) Kind() string { return "dir" }

// Release implements [owner.Policy].
func (Policy) Release(s *Stream) errno.Code {
	return owner.RetryInterrupted(func() error { return unix.Close(s.fd) })
}

// Dir owns one directory stream.
type Dir struct {
	owner.Owner[*Stream, Policy]
}

func wrap(raw int) *Dir {
	d := &Dir{}
	d.Init(Policy{}, &Stream{fd: raw})

	return d
}

// Open opens the directory at path.
func Open(path string) result.Result[*Dir] {
	f, err := fd.Open(path, fd.ReadOnly|fd.Directory, 0).Get()
	if err != nil {
		return result.Err[*Dir](errno.FromError(err))
	}
	defer f.Drop()

	return FromFD(f)
}

// FromFD converts an open directory descriptor into a stream.
//
// The descriptor is released from f before the conversion. On success f is
// left Empty and the returned Dir owns the descriptor. On failure the
// descriptor is re-wrapped into f, so the caller still owns it through f.
func FromFD(f *fd.FD) result.Result[*Dir] {
	if f.Empty() {
		return result.Err[*Dir](errno.BadHandle)
	}

	raw := f.Release()

	var st unix.Stat_t

	code := errno.FromError(unix.Fstat(raw, &st))
	if code.IsZero() && st.Mode&unix.S_IFMT != unix.S_IFDIR {
		code = errno.NotDir
	}

	if code.Failed() {
		f.Reset(raw)
		return result.Err[*Dir](code)
	}

	return result.Ok(wrap(raw))
}

// Move transfers ownership to a new Dir and leaves d Empty.
func (d *Dir) Move() *Dir {
	dst := &Dir{}
	dst.Init(Policy{}, nil)
	d.TransferTo(&dst.Owner)

	return dst
}

// Fd returns the stream's descriptor, or [fd.Null] when d is Empty.
func (d *Dir) Fd() int {
	if d.Empty() {
		return fd.Null
	}

	return d.Raw().fd
}

// Next returns the next entry, skipping "." and "..". It returns [io.EOF]
// once the directory is exhausted.
func (d *Dir) Next() (Entry, error) {
	if d.Empty() {
		return Entry{}, unix.EBADF
	}

	s := d.Raw()

	for {
		for len(s.pending) > 0 {
			e := s.pending[0]
			s.pending = s.pending[1:]

			if e.Name == "." || e.Name == ".." {
				continue
			}

			return e, nil
		}

		if s.buf == nil {
			s.buf = make([]byte, bufSize)
		}

		var n int

		code := owner.RetryInterrupted(func() error {
			var err error
			n, err = unix.ReadDirent(s.fd, s.buf)

			return err
		})
		if code.Failed() {
			return Entry{}, code.Err()
		}

		if n <= 0 {
			return Entry{}, io.EOF
		}

		s.pending = parseDirents(s.buf[:n], s.pending[:0])
	}
}

// All iterates over the remaining entries. Iteration stops after the first
// error, which is yielded with a zero Entry.
func (d *Dir) All() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		for {
			e, err := d.Next()
			if errors.Is(err, io.EOF) {
				return
			}

			if !yield(e, err) || err != nil {
				return
			}
		}
	}
}

// ReadAll returns every remaining entry.
func (d *Dir) ReadAll() result.Result[[]Entry] {
	var entries []Entry

	for e, err := range d.All() {
		if err != nil {
			return result.Err[[]Entry](errno.FromError(err))
		}

		entries = append(entries, e)
	}

	return result.Ok(entries)
}

// Rewind restarts the stream at the first entry.
func (d *Dir) Rewind() errno.Code {
	if d.Empty() {
		return errno.BadHandle
	}

	s := d.Raw()

	if _, err := unix.Seek(s.fd, 0, io.SeekStart); err != nil {
		return errno.FromError(err)
	}

	s.pending = s.pending[:0]

	return errno.None
}
