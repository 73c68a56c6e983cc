//go:build linux

package epoll_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/calvinalkan/sysown/pkg/epoll"
	"github.com/calvinalkan/sysown/pkg/errno"
	"github.com/calvinalkan/sysown/pkg/fd"
)

func Test_Instance_Reports_Readable_Pipe(t *testing.T) {
	t.Parallel()

	ep := epoll.Create().Must()
	defer ep.Drop()

	p := fd.Pipe(fd.NonBlock).Must()
	defer p.Drop()

	require.Equal(t, errno.None, ep.Add(p.R, epoll.In))

	events := make([]unix.EpollEvent, 4)
	assert.Equal(t, 0, ep.Wait(events, 0).Must(), "nothing written yet")

	_, err := p.W.Write([]byte("x"))
	require.NoError(t, err)

	n := ep.Wait(events, 1000).Must()
	require.Equal(t, 1, n)
	assert.Equal(t, int32(p.R.Raw()), events[0].Fd)
	assert.True(t, epoll.EventsOf(events[0]).Has(epoll.In))
}

func Test_Instance_Modify_And_Delete(t *testing.T) {
	t.Parallel()

	ep := epoll.Create().Must()
	defer ep.Drop()

	p := fd.Pipe(fd.NonBlock).Must()
	defer p.Drop()

	require.Equal(t, errno.None, ep.Add(p.W, epoll.In))

	events := make([]unix.EpollEvent, 1)
	assert.Equal(t, 0, ep.Wait(events, 0).Must())

	require.Equal(t, errno.None, ep.Modify(p.W, epoll.Out))
	require.Equal(t, 1, ep.Wait(events, 0).Must(), "empty pipe is writable")
	assert.True(t, epoll.EventsOf(events[0]).Has(epoll.Out))

	require.Equal(t, errno.None, ep.Delete(p.W))
	assert.Equal(t, 0, ep.WaitTimeout(events, 0).Must())

	assert.True(t, ep.Delete(p.W).Is(unix.ENOENT))
}

func Test_Instance_Add_Twice_Fails(t *testing.T) {
	t.Parallel()

	ep := epoll.Create().Must()
	defer ep.Drop()

	efd := fd.Eventfd(0, 0).Must()
	defer efd.Drop()

	require.Equal(t, errno.None, ep.Add(efd, epoll.In))
	assert.True(t, ep.Add(efd, epoll.In).Is(unix.EEXIST))
}

func Test_Instance_Close_Twice_And_Move(t *testing.T) {
	t.Parallel()

	ep := epoll.Create().Must()
	raw := ep.Raw()

	moved := ep.Move()
	assert.True(t, ep.Empty())
	assert.Equal(t, raw, moved.Raw())

	assert.Equal(t, errno.None, moved.Close())
	assert.Equal(t, errno.None, moved.Close())

	r := moved.Wait(make([]unix.EpollEvent, 1), 0)
	assert.Equal(t, errno.BadHandle, r.Code())
}

func Test_Event_Composition_And_String(t *testing.T) {
	t.Parallel()

	a, b, c := epoll.In, epoll.Out, epoll.EdgeTriggered

	assert.Equal(t, (a|b)|c, a|(b|c))
	assert.Equal(t, a|b, b|a)
	assert.Equal(t, uint32(unix.EPOLLIN|unix.EPOLLOUT|unix.EPOLLET), uint32(a|b|c))
	assert.Equal(t, "in|out|et", (a | b | c).String())
	assert.Equal(t, "none", epoll.Event(0).String())
}
