// Package owner provides [Owner], the single generic wrapper that gives a raw
// kernel handle exactly one owner and releases it exactly once.
//
// An Owner is parameterized over the raw handle type H and a [Policy] P that
// knows the handle's null sentinel and how to release it. Every resource kind
// in this module (fd, directory stream, mmap region, socket, message queue,
// epoll instance, file lock) is an Owner instantiation.
//
// # States
//
// An owner is either Empty (holding P.Null()) or Owning. Transitions:
//
//   - [New]/[Owner.Init] with a non-null handle: Owning.
//   - [Owner.Release]: Owning to Empty, handle returned to the caller.
//   - [Owner.Close]: Owning to Empty if the policy succeeds. On failure the
//     owner stays Owning and the close may be retried. Close on Empty is a
//     no-op returning [errno.None].
//   - [Owner.Move]/[Owner.TransferTo]: the source becomes Empty, the
//     destination takes the source's prior state.
//   - [Owner.Drop]: the scope-exit path, meant for defer. Close, and on
//     failure report according to [Options.OnDropError].
//
// # Ownership rules
//
// Owners are used through pointers and must not be copied; go vet's copylocks
// check flags copies. An Owner is not safe for concurrent use.
package owner

import (
	"fmt"
	"runtime"

	"github.com/calvinalkan/sysown/pkg/errno"
)

// noCopy makes go vet's copylocks analyzer report copies of an Owner.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Owner owns at most one raw handle of type H released by policy P.
//
// The zero Owner is Empty regardless of the policy's sentinel, so a zero
// resource-kind struct never appears to own handle 0. Construct owners with
// [New] or [Owner.Init].
type Owner[H comparable, P Policy[H]] struct {
	_ noCopy

	h      H
	policy P
	inited bool

	cleanup runtime.Cleanup
	tracked bool
}

// New returns an owner holding h. A null h yields an Empty owner.
func New[H comparable, P Policy[H]](policy P, h H) *Owner[H, P] {
	o := &Owner[H, P]{}
	o.Init(policy, h)

	return o
}

// Empty returns an Empty owner for policy.
func Empty[H comparable, P Policy[H]](policy P) *Owner[H, P] {
	return New(policy, policy.Null())
}

// Init sets up an owner in place. It is meant for owners embedded in a
// resource-kind struct.
//
// Panics if o already owns a handle: silently overwriting it would leak.
func (o *Owner[H, P]) Init(policy P, h H) {
	if o.Valid() {
		panic(fmt.Sprintf("owner: Init on owning %s owner", o.policy.Kind()))
	}

	o.policy = policy
	o.h = h
	o.inited = true
	o.track()
}

// Raw returns the handle without transferring ownership.
func (o *Owner[H, P]) Raw() H {
	if !o.inited {
		return o.policy.Null()
	}

	return o.h
}

// Policy returns the owner's policy.
func (o *Owner[H, P]) Policy() P { return o.policy }

// Empty reports whether o holds no handle.
func (o *Owner[H, P]) Empty() bool {
	return o == nil || !o.inited || o.h == o.policy.Null()
}

// Valid reports whether o holds a handle.
func (o *Owner[H, P]) Valid() bool { return !o.Empty() }

// Release empties o and returns the handle it held; the caller now owns it.
// On an Empty owner it returns the null sentinel.
func (o *Owner[H, P]) Release() H {
	h := o.Raw()
	o.h = o.policy.Null()
	o.untrack()

	return h
}

// Close releases the handle through the policy.
//
// Close is idempotent: on an Empty owner it does nothing and returns
// [errno.None]. If the policy fails, o keeps the handle and the error is
// returned so the caller can retry or escalate.
func (o *Owner[H, P]) Close() errno.Code {
	if o.Empty() {
		return errno.None
	}

	if code := o.policy.Release(o.h); code.Failed() {
		return code
	}

	o.h = o.policy.Null()
	o.untrack()

	return errno.None
}

// Drop is the scope-exit release:
//
//	f := fd.Open(path, fd.ReadOnly, 0).Must()
//	defer f.Drop()
//
// It calls [Owner.Close]. A failure cannot be returned from a deferred call,
// so it is reported per [Options.OnDropError]: logged (default) or logged
// and then panicked. Either way the handle is abandoned and o becomes Empty;
// keeping it would let a later Close or leak reclaim hit a reused handle.
func (o *Owner[H, P]) Drop() {
	if o.Empty() {
		return
	}

	h := o.h

	code := o.Close()
	if code.IsZero() {
		return
	}

	o.h = o.policy.Null()
	o.untrack()

	reportDropFailure(o.policy.Kind(), h, code)
}

// Discard closes the handle once and leaves o Empty whatever the outcome.
// The close error is returned, not reported. Use it on cleanup paths where a
// retry is wrong: close(2) frees the descriptor number even when it fails.
func (o *Owner[H, P]) Discard() errno.Code {
	code := o.Close()
	if code.Failed() {
		o.h = o.policy.Null()
		o.untrack()
	}

	return code
}

// Reset releases the current handle (if any) and adopts h.
//
// If releasing the current handle fails, o is unchanged, h is not adopted,
// and the error is returned.
func (o *Owner[H, P]) Reset(h H) errno.Code {
	if code := o.Close(); code.Failed() {
		return code
	}

	o.h = h
	o.inited = true
	o.track()

	return errno.None
}

// Move transfers o's state into a new owner and leaves o Empty.
func (o *Owner[H, P]) Move() *Owner[H, P] {
	dst := &Owner[H, P]{policy: o.policy, h: o.policy.Null(), inited: true}
	o.TransferTo(dst)

	return dst
}

// TransferTo moves o's state into dst (move assignment). dst's current
// handle is closed first; if that close fails, neither owner changes and the
// error is returned. Afterwards o is Empty.
func (o *Owner[H, P]) TransferTo(dst *Owner[H, P]) errno.Code {
	if dst == o {
		return errno.None
	}

	if code := dst.Close(); code.Failed() {
		return code
	}

	h := o.Release()

	dst.policy = o.policy
	dst.h = h
	dst.inited = true
	dst.track()

	return errno.None
}

func (o *Owner[H, P]) String() string {
	if o == nil {
		return "<nil>"
	}

	if o.Empty() {
		return o.policy.Kind() + "(empty)"
	}

	return fmt.Sprintf("%s(%v)", o.policy.Kind(), o.h)
}

// leaked is the state a GC cleanup needs to reclaim a handle. It must not
// reference the owner itself.
type leaked[H comparable, P Policy[H]] struct {
	h      H
	policy P
}

func (o *Owner[H, P]) track() {
	o.untrack()

	if o.Empty() || !CurrentOptions().TrackLeaks {
		return
	}

	o.cleanup = runtime.AddCleanup(o, reclaim[H, P], leaked[H, P]{h: o.h, policy: o.policy})
	o.tracked = true
}

func (o *Owner[H, P]) untrack() {
	if !o.tracked {
		return
	}

	o.cleanup.Stop()
	o.cleanup = runtime.Cleanup{}
	o.tracked = false
}

func reclaim[H comparable, P Policy[H]](l leaked[H, P]) {
	if !reclaims(l.policy) {
		reportAbandoned(l.policy.Kind(), l.h)
		return
	}

	reportLeak(l.policy.Kind(), l.h, l.policy.Release(l.h))
}
