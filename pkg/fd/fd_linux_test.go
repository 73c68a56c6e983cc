//go:build linux

package fd_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/calvinalkan/sysown/pkg/errno"
	"github.com/calvinalkan/sysown/pkg/fd"
)

func Test_Pipe_Transfers_Bytes_And_Reports_EOF_After_Writer_Closes(t *testing.T) {
	t.Parallel()

	p := fd.Pipe(0).Must()
	defer p.Drop()

	_, err := p.W.Write([]byte("ping"))
	require.NoError(t, err)

	assert.Equal(t, 4, p.R.Buffered().Must())

	require.Equal(t, errno.None, p.W.Close())

	data, err := io.ReadAll(p.R)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(data))
}

func Test_Eventfd_Accumulates_Notifications(t *testing.T) {
	t.Parallel()

	efd := fd.Eventfd(0, fd.NonBlock).Must()
	defer efd.Drop()

	r := efd.Counter()
	assert.True(t, r.Code().Is(unix.EAGAIN), "empty non-blocking eventfd must report EAGAIN, got %v", r)

	require.Equal(t, errno.None, efd.Notify(2))
	require.Equal(t, errno.None, efd.Notify(3))

	assert.Equal(t, uint64(5), efd.Counter().Must())
}

func Test_Memfd_Is_Sized_By_Truncate(t *testing.T) {
	t.Parallel()

	m := fd.Memfd("sysown-test").Must()
	defer m.Drop()

	require.Equal(t, errno.None, m.Truncate(8192))
	assert.Equal(t, int64(8192), m.Stat().Must().Size)

	_, err := m.WriteAt([]byte("tail"), 8188)
	require.NoError(t, err)

	buf := make([]byte, 4)
	_, err = m.ReadAt(buf, 8188)
	require.NoError(t, err)
	assert.Equal(t, "tail", string(buf))
}

func Test_FD_DupTo_Redirects_Destination_To_Source_File(t *testing.T) {
	t.Parallel()

	src := fd.Memfd("src").Must()
	defer src.Drop()

	dst := fd.Memfd("dst").Must()
	defer dst.Drop()

	_, err := src.Write([]byte("from src"))
	require.NoError(t, err)

	raw := dst.Raw()
	require.Equal(t, errno.None, src.DupTo(dst))
	assert.Equal(t, raw, dst.Raw(), "dst keeps its descriptor number")

	buf := make([]byte, 8)
	_, err = dst.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "from src", string(buf))

	cloexec, err := dst.CloseOnExec().Get()
	require.NoError(t, err)
	assert.True(t, cloexec)

	assert.Equal(t, errno.BadHandle, src.DupTo(&fd.FD{}))
	assert.True(t, src.DupTo(src).Is(unix.EINVAL))
}
