package owner

import (
	"github.com/calvinalkan/sysown/pkg/errno"
)

// Policy knows how to release one kind of kernel handle.
//
// Release is only ever called with a handle different from Null(); the
// [Owner] guards against calling it on an empty owner. Implementations must
// retry the underlying release call while it reports EINTR and return any
// other failure immediately. [RetryInterrupted] implements that loop.
//
// Policies are small values copied into each owner. Stateless policies are
// usually empty structs.
type Policy[H comparable] interface {
	// Null returns the sentinel meaning "no handle".
	Null() H

	// Release returns h to the kernel.
	Release(h H) errno.Code

	// Kind names the resource kind in diagnostics ("fd", "mmap", ...).
	Kind() string
}

// Reclaimer is an optional [Policy] extension. A policy whose Reclaims
// reports false keeps the handle of a leaked owner alive: the leak is logged
// but Release is not called. Kinds whose handles back memory that views may
// still reference (an mmap region) must opt out.
type Reclaimer interface {
	Reclaims() bool
}

func reclaims(p any) bool {
	r, ok := p.(Reclaimer)
	return !ok || r.Reclaims()
}

// maxInterruptRetries caps the EINTR loop. In practice a release call is
// never interrupted more than a handful of times; the cap only keeps a signal
// storm from spinning forever.
const maxInterruptRetries = 10000

// RetryInterrupted calls release until it returns something other than
// EINTR, and returns that result as an [errno.Code].
func RetryInterrupted(release func() error) errno.Code {
	var code errno.Code

	for range maxInterruptRetries {
		code = errno.FromError(release())
		if !code.Interrupted() {
			return code
		}
	}

	return code
}

// Func adapts a plain release function into a [Policy]. The function is
// wrapped in [RetryInterrupted].
type Func[H comparable] struct {
	// Name is returned by Kind.
	Name string

	// Sentinel is returned by Null.
	Sentinel H

	// Fn releases a handle.
	Fn func(h H) error
}

// Null implements [Policy].
func (f Func[H]) Null() H { return f.Sentinel }

// Kind implements [Policy].
func (f Func[H]) Kind() string { return f.Name }

// Release implements [Policy].
func (f Func[H]) Release(h H) errno.Code {
	return RetryInterrupted(func() error { return f.Fn(h) })
}

var _ Policy[int] = Func[int]{}
