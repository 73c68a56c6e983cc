//go:build linux

// Package mqueue provides the POSIX message-queue resource kind on Linux.
//
// A message-queue descriptor is an ordinary descriptor on Linux, released
// with close(2). The mq_* calls are issued as raw syscalls; queue names are
// accepted with or without the leading slash.
package mqueue

import (
	"strings"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/calvinalkan/sysown/pkg/errno"
	"github.com/calvinalkan/sysown/pkg/fd"
	"github.com/calvinalkan/sysown/pkg/owner"
	"github.com/calvinalkan/sysown/pkg/result"
)

// Attr mirrors struct mq_attr.
type Attr struct {
	Flags   int
	MaxMsg  int
	MsgSize int
	CurMsgs int
	_       [4]int
}

// Nonblocking reports whether O_NONBLOCK is set.
func (a Attr) Nonblocking() bool { return a.Flags&unix.O_NONBLOCK != 0 }

// Policy releases a queue descriptor with close(2), retrying on EINTR.
type Policy struct{}

// Null implements [owner.Policy].
func (Policy) Null() int { return fd.Null }

// Kind implements [owner.Policy].
func (Policy) Kind() string { return "mqueue" }

// Release implements [owner.Policy].
func (Policy) Release(h int) errno.Code {
	return owner.RetryInterrupted(func() error { return unix.Close(h) })
}

// Queue owns one message-queue descriptor.
type Queue struct {
	owner.Owner[int, Policy]
}

func wrap(raw int) *Queue {
	q := &Queue{}
	q.Init(Policy{}, raw)

	return q
}

func kernelName(name string) (*byte, errno.Code) {
	name = strings.TrimPrefix(name, "/")
	if name == "" || strings.Contains(name, "/") {
		return nil, errno.Invalid
	}

	p, err := unix.BytePtrFromString(name)
	if err != nil {
		return nil, errno.FromError(err)
	}

	return p, errno.None
}

// Open opens or creates the queue name. attr applies only when flags
// include [fd.Create]; nil selects the system defaults.
func Open(name string, flags fd.OpenFlag, mode uint32, attr *Attr) result.Result[*Queue] {
	p, code := kernelName(name)
	if code.Failed() {
		return result.Err[*Queue](code)
	}

	raw, _, e := unix.Syscall6(unix.SYS_MQ_OPEN,
		uintptr(unsafe.Pointer(p)),
		uintptr(flags|fd.CloseOnExec),
		uintptr(mode),
		uintptr(unsafe.Pointer(attr)),
		0, 0)
	if e != 0 {
		return result.Err[*Queue](errno.FromErrno(e))
	}

	return result.Ok(wrap(int(raw)))
}

// Unlink removes the queue name. Open descriptors stay usable.
func Unlink(name string) errno.Code {
	p, code := kernelName(name)
	if code.Failed() {
		return code
	}

	_, _, e := unix.Syscall(unix.SYS_MQ_UNLINK, uintptr(unsafe.Pointer(p)), 0, 0)

	return errno.FromErrno(e)
}

// Move transfers ownership to a new Queue and leaves q Empty.
func (q *Queue) Move() *Queue {
	dst := wrap(fd.Null)
	q.TransferTo(&dst.Owner)

	return dst
}

func timespec(deadline time.Time) *unix.Timespec {
	if deadline.IsZero() {
		return nil
	}

	ts := unix.NsecToTimespec(deadline.UnixNano())

	return &ts
}

// Send enqueues msg with priority prio, blocking while the queue is full
// unless it is non-blocking.
func (q *Queue) Send(msg []byte, prio uint) errno.Code {
	return q.SendUntil(msg, prio, time.Time{})
}

// SendUntil is [Queue.Send] with an absolute deadline. A zero deadline
// blocks indefinitely; an expired one yields ETIMEDOUT.
func (q *Queue) SendUntil(msg []byte, prio uint, deadline time.Time) errno.Code {
	var p unsafe.Pointer
	if len(msg) > 0 {
		p = unsafe.Pointer(&msg[0])
	}

	ts := timespec(deadline)

	_, _, e := unix.Syscall6(unix.SYS_MQ_TIMEDSEND,
		uintptr(q.Raw()),
		uintptr(p),
		uintptr(len(msg)),
		uintptr(prio),
		uintptr(unsafe.Pointer(ts)),
		0)

	return errno.FromErrno(e)
}

// Message is the length and priority of a received message.
type Message struct {
	N    int
	Prio uint
}

// Receive dequeues the oldest message of the highest priority into buf.
// buf must be at least Attr().MsgSize bytes or the call fails with EMSGSIZE.
func (q *Queue) Receive(buf []byte) result.Result[Message] {
	return q.ReceiveUntil(buf, time.Time{})
}

// ReceiveUntil is [Queue.Receive] with an absolute deadline.
func (q *Queue) ReceiveUntil(buf []byte, deadline time.Time) result.Result[Message] {
	var (
		p    unsafe.Pointer
		prio uint32
	)

	if len(buf) > 0 {
		p = unsafe.Pointer(&buf[0])
	}

	ts := timespec(deadline)

	n, _, e := unix.Syscall6(unix.SYS_MQ_TIMEDRECEIVE,
		uintptr(q.Raw()),
		uintptr(p),
		uintptr(len(buf)),
		uintptr(unsafe.Pointer(&prio)),
		uintptr(unsafe.Pointer(ts)),
		0)
	if e != 0 {
		return result.Err[Message](errno.FromErrno(e))
	}

	return result.Ok(Message{N: int(n), Prio: uint(prio)})
}

func (q *Queue) getsetattr(set, old *Attr) errno.Code {
	_, _, e := unix.Syscall(unix.SYS_MQ_GETSETATTR,
		uintptr(q.Raw()),
		uintptr(unsafe.Pointer(set)),
		uintptr(unsafe.Pointer(old)))

	return errno.FromErrno(e)
}

// Attr returns the queue attributes, including the current message count.
func (q *Queue) Attr() result.Result[Attr] {
	var a Attr
	if code := q.getsetattr(nil, &a); code.Failed() {
		return result.Err[Attr](code)
	}

	return result.Ok(a)
}

// SetNonblock toggles O_NONBLOCK on the descriptor. It is the only
// attribute mq_setattr can change.
func (q *Queue) SetNonblock(nonblocking bool) errno.Code {
	var a Attr
	if nonblocking {
		a.Flags = unix.O_NONBLOCK
	}

	return q.getsetattr(&a, nil)
}
