// Package errno provides a comparable, value-typed error code for OS
// failures.
//
// A [Code] is a (domain, number) pair. The zero value means "no error", so a
// Code can be returned from functions that have nothing else to report, and
// compared with == against well-known conditions:
//
//	code := errno.FromError(unix.Close(fd))
//	if code.Interrupted() {
//	    // retry
//	}
//
// Go syscalls hand back the error number as their return value rather than
// through a shared thread-local cell, so "capture immediately after the call"
// is [FromError] applied to that return value. [Preserve] covers cleanup paths
// that must not overwrite an error captured earlier.
package errno

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Domain identifies the number space a [Code] belongs to.
type Domain uint8

const (
	// DomainNone is the domain of the zero Code.
	DomainNone Domain = iota

	// DomainOS is the host errno space (unix.Errno).
	DomainOS
)

func (d Domain) String() string {
	switch d {
	case DomainNone:
		return "none"
	case DomainOS:
		return "os"
	default:
		return fmt.Sprintf("domain(%d)", uint8(d))
	}
}

// Code is an error number tagged with its domain.
//
// Code deliberately does not implement error: a zero Code stored in an error
// interface would be non-nil. Use [Code.Err] to convert.
type Code struct {
	domain Domain
	number unix.Errno
}

// None is the "no error" code.
var None = Code{}

// Well-known conditions.
var (
	Interrupted = FromErrno(unix.EINTR)
	WouldBlock  = FromErrno(unix.EAGAIN)
	BadHandle   = FromErrno(unix.EBADF)
	NotExist    = FromErrno(unix.ENOENT)
	NotDir      = FromErrno(unix.ENOTDIR)
	Invalid     = FromErrno(unix.EINVAL)
	NotSupp     = FromErrno(unix.ENOSYS)
	TimedOut    = FromErrno(unix.ETIMEDOUT)
)

// FromErrno wraps a raw errno. Errno 0 yields [None].
func FromErrno(e unix.Errno) Code {
	if e == 0 {
		return None
	}

	return Code{domain: DomainOS, number: e}
}

// FromError extracts the errno carried by err.
//
// nil yields [None]. Errors that wrap a [unix.Errno] (including
// [os.PathError] and [os.SyscallError]) yield that errno. Any other non-nil
// error maps to EIO so that failure is never reported as success.
func FromError(err error) Code {
	if err == nil {
		return None
	}

	var e unix.Errno
	if errors.As(err, &e) {
		if e == 0 {
			return FromErrno(unix.EIO)
		}

		return FromErrno(e)
	}

	return FromErrno(unix.EIO)
}

// Domain reports the domain of c.
func (c Code) Domain() Domain { return c.domain }

// Errno returns the raw error number (0 for [None]).
func (c Code) Errno() unix.Errno { return c.number }

// IsZero reports whether c is the "no error" value.
func (c Code) IsZero() bool { return c == None }

// Failed reports whether c carries an error.
func (c Code) Failed() bool { return c != None }

// Interrupted reports whether c is EINTR.
func (c Code) Interrupted() bool { return c == Interrupted }

// Temporary reports whether the operation may succeed if retried later
// (EINTR, EAGAIN/EWOULDBLOCK).
func (c Code) Temporary() bool {
	return c.number == unix.EINTR || c.number == unix.EAGAIN || c.number == unix.EWOULDBLOCK
}

// Is reports whether c carries the errno e.
func (c Code) Is(e unix.Errno) bool {
	return c.domain == DomainOS && c.number == e
}

// Err converts c to an error. [None] converts to nil; everything else to the
// underlying [unix.Errno], so errors.Is(err, unix.ENOENT) works.
func (c Code) Err() error {
	if c.IsZero() {
		return nil
	}

	return c.number
}

// Wrap annotates c with an operation name, for callers that want a
// descriptive error. [None] yields nil.
func (c Code) Wrap(op string) error {
	if c.IsZero() {
		return nil
	}

	return &OpError{Op: op, Code: c}
}

func (c Code) String() string {
	if c.IsZero() {
		return "success"
	}

	return c.number.Error()
}

// OpError is an operation name paired with the [Code] it failed with.
type OpError struct {
	Op   string
	Code Code
}

func (e *OpError) Error() string {
	return e.Op + ": " + e.Code.String()
}

// Unwrap exposes the underlying errno to errors.Is/As.
func (e *OpError) Unwrap() error { return e.Code.Err() }

// Preserve snapshots *c and returns a function restoring it.
//
// Cleanup code that may itself fail (closing a half-built resource after an
// earlier failure) runs between the two, so the primary error survives:
//
//	code := errno.FromError(err)
//	restore := errno.Preserve(&code)
//	code = closeQuietly(h) // may overwrite
//	restore()              // code is the original again
func Preserve(c *Code) (restore func()) {
	saved := *c

	return func() { *c = saved }
}

// First returns the first failed code, or [None].
func First(codes ...Code) Code {
	for _, c := range codes {
		if c.Failed() {
			return c
		}
	}

	return None
}
