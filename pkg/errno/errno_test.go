package errno_test

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/calvinalkan/sysown/pkg/errno"
)

func Test_Code_Zero_Value_Means_No_Error(t *testing.T) {
	t.Parallel()

	var c errno.Code

	assert.True(t, c.IsZero())
	assert.False(t, c.Failed())
	assert.Equal(t, errno.None, c)
	require.NoError(t, c.Err())
	require.NoError(t, c.Wrap("close"))
	assert.Equal(t, "success", c.String())
}

func Test_FromError_Extracts_Errno_When_Wrapped(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		err  error
		want errno.Code
	}{
		{name: "Nil", err: nil, want: errno.None},
		{name: "Bare", err: unix.EINTR, want: errno.Interrupted},
		{name: "PathError", err: &os.PathError{Op: "open", Path: "/x", Err: unix.ENOENT}, want: errno.NotExist},
		{name: "Fmt", err: fmt.Errorf("reading: %w", unix.EBADF), want: errno.BadHandle},
		{name: "Foreign", err: errors.New("boom"), want: errno.FromErrno(unix.EIO)},
		{name: "ZeroErrno", err: unix.Errno(0), want: errno.FromErrno(unix.EIO)},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.want, errno.FromError(testCase.err))
		})
	}
}

func Test_Code_Err_Supports_ErrorsIs(t *testing.T) {
	t.Parallel()

	err := errno.NotExist.Err()
	require.ErrorIs(t, err, unix.ENOENT)
	require.ErrorIs(t, err, os.ErrNotExist)

	wrapped := errno.NotExist.Wrap("open")
	require.ErrorIs(t, wrapped, unix.ENOENT)
	assert.Equal(t, errno.NotExist, errno.FromError(wrapped))
	assert.Contains(t, wrapped.Error(), "open: ")
}

func Test_Code_Classifies_Temporary_Conditions(t *testing.T) {
	t.Parallel()

	assert.True(t, errno.Interrupted.Interrupted())
	assert.True(t, errno.Interrupted.Temporary())
	assert.True(t, errno.WouldBlock.Temporary())
	assert.False(t, errno.BadHandle.Temporary())
	assert.True(t, errno.BadHandle.Is(unix.EBADF))
	assert.Equal(t, errno.DomainOS, errno.BadHandle.Domain())
	assert.Equal(t, errno.DomainNone, errno.None.Domain())
}

func Test_Preserve_Restores_Primary_Code_When_Cleanup_Overwrites(t *testing.T) {
	t.Parallel()

	code := errno.NotExist
	restore := errno.Preserve(&code)
	code = errno.BadHandle
	restore()

	assert.Equal(t, errno.NotExist, code)
}

func Test_First_Returns_First_Failure(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errno.None, errno.First())
	assert.Equal(t, errno.None, errno.First(errno.None, errno.None))
	assert.Equal(t, errno.BadHandle, errno.First(errno.None, errno.BadHandle, errno.Invalid))
}
