//go:build linux

// Package epoll provides the epoll-instance resource kind.
//
// Wait does not retry EINTR: a signal ends the wait early and the caller
// decides whether to wait again with the remaining timeout.
package epoll

import (
	"math"
	"time"

	"golang.org/x/sys/unix"

	"github.com/calvinalkan/sysown/pkg/errno"
	"github.com/calvinalkan/sysown/pkg/fd"
	"github.com/calvinalkan/sysown/pkg/owner"
	"github.com/calvinalkan/sysown/pkg/result"
)

// Handle is anything owning a descriptor: *fd.FD, *sock.Socket,
// *mqueue.Queue, *Instance.
type Handle interface {
	Raw() int
}

// Policy releases an epoll instance with close(2), retrying on EINTR.
type Policy struct{}

// Null implements [owner.Policy].
func (Policy) Null() int { return fd.Null }

// Kind implements [owner.Policy].
func (Policy) Kind() string { return "epoll" }

// Release implements [owner.Policy].
func (Policy) Release(h int) errno.Code {
	return owner.RetryInterrupted(func() error { return unix.Close(h) })
}

// Instance owns one epoll descriptor.
type Instance struct {
	owner.Owner[int, Policy]
}

func wrap(raw int) *Instance {
	e := &Instance{}
	e.Init(Policy{}, raw)

	return e
}

// Create makes a new close-on-exec epoll instance.
func Create() result.Result[*Instance] {
	raw, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return result.Err[*Instance](errno.FromError(err))
	}

	return result.Ok(wrap(raw))
}

// Move transfers ownership to a new Instance and leaves e Empty.
func (e *Instance) Move() *Instance {
	dst := wrap(fd.Null)
	e.TransferTo(&dst.Owner)

	return dst
}

func (e *Instance) ctl(op int, h Handle, events Event) errno.Code {
	raw := h.Raw()
	ev := unix.EpollEvent{Events: uint32(events), Fd: int32(raw)}

	return errno.FromError(unix.EpollCtl(e.Raw(), op, raw, &ev))
}

// Add registers h for events. The ready event carries h's descriptor.
func (e *Instance) Add(h Handle, events Event) errno.Code {
	return e.ctl(unix.EPOLL_CTL_ADD, h, events)
}

// Modify changes the events h is registered for.
func (e *Instance) Modify(h Handle, events Event) errno.Code {
	return e.ctl(unix.EPOLL_CTL_MOD, h, events)
}

// Delete unregisters h.
func (e *Instance) Delete(h Handle) errno.Code {
	return errno.FromError(unix.EpollCtl(e.Raw(), unix.EPOLL_CTL_DEL, h.Raw(), nil))
}

// Wait fills events with ready descriptors and returns how many. msec is
// the timeout in milliseconds: -1 waits indefinitely, 0 polls.
func (e *Instance) Wait(events []unix.EpollEvent, msec int) result.Result[int] {
	return result.Of(unix.EpollWait(e.Raw(), events, msec))
}

// WaitTimeout is [Instance.Wait] with a duration, rounded up to whole
// milliseconds. A negative d waits indefinitely.
// Durations beyond the kernel's int32 millisecond range are clamped.
func (e *Instance) WaitTimeout(events []unix.EpollEvent, d time.Duration) result.Result[int] {
	return e.Wait(events, timeoutMillis(d))
}

func timeoutMillis(d time.Duration) int {
	switch {
	case d < 0:
		return -1
	case d > math.MaxInt32*time.Millisecond:
		return math.MaxInt32
	}

	return int((d + time.Millisecond - 1) / time.Millisecond)
}
