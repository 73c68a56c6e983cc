//go:build linux

package epoll

import (
	"strings"

	"golang.org/x/sys/unix"
)

// Event is a set of epoll event bits.
type Event uint32

const (
	In            Event = unix.EPOLLIN
	Out           Event = unix.EPOLLOUT
	Pri           Event = unix.EPOLLPRI
	Err           Event = unix.EPOLLERR
	Hup           Event = unix.EPOLLHUP
	RdHup         Event = unix.EPOLLRDHUP
	OneShot       Event = unix.EPOLLONESHOT
	EdgeTriggered Event = unix.EPOLLET
)

// EventsOf returns the event bits of a ready entry.
func EventsOf(ev unix.EpollEvent) Event { return Event(ev.Events) }

// Has reports whether every bit of x is set in e.
func (e Event) Has(x Event) bool { return e&x == x }

var eventNames = []struct {
	ev   Event
	name string
}{
	{In, "in"},
	{Out, "out"},
	{Pri, "pri"},
	{Err, "err"},
	{Hup, "hup"},
	{RdHup, "rdhup"},
	{OneShot, "oneshot"},
	{EdgeTriggered, "et"},
}

func (e Event) String() string {
	var parts []string

	for _, n := range eventNames {
		if e.Has(n.ev) {
			parts = append(parts, n.name)
		}
	}

	if len(parts) == 0 {
		return "none"
	}

	return strings.Join(parts, "|")
}
