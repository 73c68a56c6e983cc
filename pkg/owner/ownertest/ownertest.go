// Package ownertest provides an instrumented [owner.Policy] for tests.
//
// A [Recorder] counts release calls and replays a script of injected errnos,
// one per call, so tests can observe exactly how often and with which handles
// an owner invoked its policy:
//
//	rec := ownertest.NewRecorder(unix.EINTR) // first call interrupted
//	o := owner.New(rec.Policy(), 7)
//	o.Close()          // errno.None after one retry
//	rec.Calls()        // 2
package ownertest

import (
	"sync"

	"golang.org/x/sys/unix"

	"github.com/calvinalkan/sysown/pkg/errno"
	"github.com/calvinalkan/sysown/pkg/owner"
)

// Null is the sentinel of [Policy].
const Null = -1

// Recorder records release calls. It is safe for concurrent use because GC
// cleanups call policies from another goroutine.
type Recorder struct {
	mu      sync.Mutex
	handles []int
	script  []unix.Errno
}

// NewRecorder returns a recorder whose first release calls fail with script
// (0 entries succeed). Calls past the script succeed.
func NewRecorder(script ...unix.Errno) *Recorder {
	return &Recorder{script: script}
}

// Script appends further injected results.
func (r *Recorder) Script(errs ...unix.Errno) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.script = append(r.script, errs...)
}

// Calls returns how many times the underlying release ran, retries included.
func (r *Recorder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.handles)
}

// Handles returns the handle passed to each release call, in order.
func (r *Recorder) Handles() []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]int(nil), r.handles...)
}

// Policy returns a policy bound to r.
func (r *Recorder) Policy() Policy {
	return Policy{rec: r}
}

func (r *Recorder) release(h int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handles = append(r.handles, h)

	if len(r.script) == 0 {
		return nil
	}

	e := r.script[0]
	r.script = r.script[1:]

	if e == 0 {
		return nil
	}

	return e
}

// Policy is an int-handle policy backed by a [Recorder]. Like every policy in
// this module, it retries on EINTR.
type Policy struct {
	rec *Recorder
}

// Null implements [owner.Policy].
func (Policy) Null() int { return Null }

// Kind implements [owner.Policy].
func (Policy) Kind() string { return "test" }

// Release implements [owner.Policy].
func (p Policy) Release(h int) errno.Code {
	return owner.RetryInterrupted(func() error { return p.rec.release(h) })
}

var _ owner.Policy[int] = Policy{}
