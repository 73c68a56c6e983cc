//go:build linux

package epoll

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_TimeoutMillis_Rounds_Up_And_Clamps_To_Int32(t *testing.T) {
	t.Parallel()

	tests := []struct {
		d    time.Duration
		want int
	}{
		{d: -time.Second, want: -1},
		{d: 0, want: 0},
		{d: time.Microsecond, want: 1},
		{d: 1500 * time.Microsecond, want: 2},
		{d: time.Second, want: 1000},
		{d: math.MaxInt32 * time.Millisecond, want: math.MaxInt32},
		{d: math.MaxInt32*time.Millisecond + 1, want: math.MaxInt32},
		{d: 1000 * time.Hour, want: math.MaxInt32},
		{d: math.MaxInt64, want: math.MaxInt32},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, timeoutMillis(tt.d), "timeoutMillis(%s)", tt.d)
	}
}
