package result_test

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/calvinalkan/sysown/pkg/errno"
	"github.com/calvinalkan/sysown/pkg/result"
)

func Test_Result_Holds_Exactly_One_Of_Value_Or_Error(t *testing.T) {
	t.Parallel()

	ok := result.Ok(42)
	require.True(t, ok.OK())
	assert.Equal(t, errno.None, ok.Code())
	require.NotNil(t, ok.Value())
	assert.Equal(t, 42, *ok.Value())

	bad := result.Err[int](errno.BadHandle)
	require.False(t, bad.OK())
	assert.Equal(t, errno.BadHandle, bad.Code())
	assert.Nil(t, bad.Value())

	v, err := bad.Get()
	require.ErrorIs(t, err, unix.EBADF)
	assert.Zero(t, v)
}

func Test_Err_Panics_When_Code_Is_None(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { _ = result.Err[int](errno.None) })
}

func Test_Of_Converts_Value_Error_Pairs(t *testing.T) {
	t.Parallel()

	r := result.Of("x", nil)
	require.True(t, r.OK())
	assert.Equal(t, "x", r.Must())

	r = result.Of("x", unix.EAGAIN)
	require.False(t, r.OK())
	assert.Equal(t, errno.WouldBlock, r.Code())

	r = result.Of("x", errors.New("opaque"))
	assert.True(t, r.Code().Is(unix.EIO))
}

func Test_Map_Applies_Function_When_Value_Present(t *testing.T) {
	t.Parallel()

	for _, v := range []int{-3, 0, 1, 255} {
		got := result.Map(result.Ok(v), strconv.Itoa)
		require.True(t, got.OK())
		assert.Equal(t, strconv.Itoa(v), got.Must())
	}
}

func Test_Map_Preserves_Error_And_Never_Calls_Function_When_Error_Present(t *testing.T) {
	t.Parallel()

	for _, code := range []errno.Code{errno.Interrupted, errno.NotExist, errno.FromErrno(unix.EMFILE)} {
		calls := 0
		got := result.Map(result.Err[int](code), func(int) string {
			calls++
			return "unreachable"
		})

		assert.Equal(t, code, got.Code())
		assert.Nil(t, got.Value())
		assert.Equal(t, 0, calls, "f must not run on the error path")
	}
}

func Test_AndThen_Short_Circuits_On_Error(t *testing.T) {
	t.Parallel()

	half := func(v int) result.Result[int] {
		if v%2 != 0 {
			return result.Err[int](errno.Invalid)
		}
		return result.Ok(v / 2)
	}

	assert.Equal(t, 4, result.AndThen(result.Ok(8), half).Must())
	assert.Equal(t, errno.Invalid, result.AndThen(result.Ok(3), half).Code())
	assert.Equal(t, errno.BadHandle, result.AndThen(result.Err[int](errno.BadHandle), half).Code())
}

func Test_Must_Panics_On_Error(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { result.Err[int](errno.Invalid).Must() })
	assert.Equal(t, "Ok(1)", result.Ok(1).String())
}
