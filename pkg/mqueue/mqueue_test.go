//go:build linux

package mqueue_test

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/calvinalkan/sysown/pkg/errno"
	"github.com/calvinalkan/sysown/pkg/fd"
	"github.com/calvinalkan/sysown/pkg/mqueue"
)

// openTestQueue creates a fresh queue and unlinks it when the test ends.
// Hosts without POSIX message queues skip the test.
func openTestQueue(t *testing.T, flags fd.OpenFlag) (*mqueue.Queue, string) {
	t.Helper()

	name := fmt.Sprintf("/sysown-%d-%s", os.Getpid(), strings.ReplaceAll(t.Name(), "/", "_"))

	r := mqueue.Open(name, fd.ReadWrite|fd.Create|fd.Exclusive|flags, 0o600, &mqueue.Attr{MaxMsg: 4, MsgSize: 64})
	if c := r.Code(); c.Is(unix.ENOSYS) || c.Is(unix.EACCES) || c.Is(unix.EPERM) {
		t.Skipf("message queues unavailable: %v", c)
	}

	q := r.Must()
	t.Cleanup(func() {
		q.Drop()
		_ = mqueue.Unlink(name)
	})

	return q, name
}

func Test_Queue_Receives_Highest_Priority_First(t *testing.T) {
	t.Parallel()

	q, _ := openTestQueue(t, 0)

	require.Equal(t, errno.None, q.Send([]byte("low"), 1))
	require.Equal(t, errno.None, q.Send([]byte("high"), 5))

	attr := q.Attr().Must()
	assert.Equal(t, 2, attr.CurMsgs)
	assert.Equal(t, 4, attr.MaxMsg)
	assert.Equal(t, 64, attr.MsgSize)

	buf := make([]byte, 64)

	m := q.Receive(buf).Must()
	assert.Equal(t, "high", string(buf[:m.N]))
	assert.Equal(t, uint(5), m.Prio)

	m = q.Receive(buf).Must()
	assert.Equal(t, "low", string(buf[:m.N]))
	assert.Equal(t, uint(1), m.Prio)
}

func Test_Queue_Nonblocking_Receive_On_Empty_Queue_Would_Block(t *testing.T) {
	t.Parallel()

	q, _ := openTestQueue(t, fd.NonBlock)

	assert.True(t, q.Attr().Must().Nonblocking())

	r := q.Receive(make([]byte, 64))
	assert.Equal(t, errno.WouldBlock, r.Code())

	require.Equal(t, errno.None, q.SetNonblock(false))
	assert.False(t, q.Attr().Must().Nonblocking())
}

func Test_Queue_ReceiveUntil_Times_Out(t *testing.T) {
	t.Parallel()

	q, _ := openTestQueue(t, 0)

	r := q.ReceiveUntil(make([]byte, 64), time.Now().Add(-time.Second))
	assert.Equal(t, errno.TimedOut, r.Code())
}

func Test_Queue_Receive_Rejects_Short_Buffer(t *testing.T) {
	t.Parallel()

	q, _ := openTestQueue(t, 0)

	require.Equal(t, errno.None, q.Send([]byte("x"), 0))

	r := q.Receive(make([]byte, 8))
	assert.True(t, r.Code().Is(unix.EMSGSIZE))
}

func Test_Queue_Open_Existing_Name_By_Second_Owner(t *testing.T) {
	t.Parallel()

	q, name := openTestQueue(t, 0)

	other := mqueue.Open(strings.TrimPrefix(name, "/"), fd.WriteOnly, 0, nil).Must()
	defer other.Drop()

	require.Equal(t, errno.None, other.Send([]byte("shared"), 2))

	buf := make([]byte, 64)
	m := q.Receive(buf).Must()
	assert.Equal(t, "shared", string(buf[:m.N]))
}

func Test_Queue_Close_Twice_And_Move(t *testing.T) {
	t.Parallel()

	q, _ := openTestQueue(t, 0)

	moved := q.Move()
	assert.True(t, q.Empty())

	assert.Equal(t, errno.None, moved.Close())
	assert.Equal(t, errno.None, moved.Close())
}

func Test_Queue_Open_Fails_Without_Owner(t *testing.T) {
	t.Parallel()

	r := mqueue.Open(fmt.Sprintf("/sysown-missing-%d", os.Getpid()), fd.ReadOnly, 0, nil)
	if r.Code().Is(unix.ENOSYS) {
		t.Skip("message queues unavailable")
	}

	assert.Equal(t, errno.NotExist, r.Code())
	assert.Nil(t, r.Value())

	assert.Equal(t, errno.Invalid, mqueue.Open("a/b", fd.ReadOnly, 0, nil).Code())
	assert.Equal(t, errno.Invalid, mqueue.Unlink("/"))
}
