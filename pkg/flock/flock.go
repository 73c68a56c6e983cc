// Package flock provides advisory file locks as an owned resource kind.
//
// A [Lock] is an owner over the descriptor holding the flock(2). Its policy
// unlocks and then closes the descriptor, retrying both on EINTR, so a lock
// is released exactly once through Close or Drop like every other owner.
package flock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff"
	"golang.org/x/sys/unix"

	"github.com/calvinalkan/sysown/pkg/errno"
	"github.com/calvinalkan/sysown/pkg/fd"
	"github.com/calvinalkan/sysown/pkg/owner"
)

var (
	// ErrWouldBlock is returned when a lock cannot be acquired without waiting.
	//
	// It is returned by [Locker.TryLock]/[Locker.TryRLock] when the lock is held
	// by another process, and by the *WithTimeout methods when the acquisition
	// timeout expires.
	ErrWouldBlock = errors.New("lock would block")

	// ErrInvalidTimeout is returned when a timeout is <= 0.
	ErrInvalidTimeout = errors.New("invalid lock timeout")

	// errInodeMismatch means the lock file was replaced between open and
	// flock. Callers retry.
	errInodeMismatch = errors.New("inode mismatch")
)

// Policy unlocks and closes a lock descriptor.
//
// Closing the descriptor drops the flock anyway, so an unlock failure
// followed by a successful close counts as released. Only a failed close
// keeps the owner owning.
type Policy struct {
	flock func(fd int, how int) error
}

// Null implements [owner.Policy].
func (Policy) Null() int { return fd.Null }

// Kind implements [owner.Policy].
func (Policy) Kind() string { return "flock" }

// Release implements [owner.Policy].
func (p Policy) Release(h int) errno.Code {
	flock := p.flock
	if flock == nil {
		flock = unix.Flock
	}

	_ = owner.RetryInterrupted(func() error { return flock(h, unix.LOCK_UN) })

	return owner.RetryInterrupted(func() error { return unix.Close(h) })
}

// Lock is a held file lock. Close or Drop releases it; both are idempotent.
// A Lock is not safe for concurrent use.
type Lock struct {
	owner.Owner[int, Policy]
}

// Locker acquires flock(2) locks on paths.
//
// flock is advisory and applies to an inode (an open file), not a pathname. All
// cooperating processes must take the lock for it to have effect. Prefer a
// dedicated lock file that is stable on disk, and do not replace or unlink it
// while locks may be held.
//
// Locker verifies that the descriptor it locked still refers to the file
// currently at path at the moment the lock is acquired. If the lock file is
// replaced after acquisition, the lock no longer guards the pathname.
//
// Exclusive locks open the file read-write; shared locks open it read-only.
//
// Locker has no mutable state and is safe for concurrent use.
type Locker struct {
	flock func(fd int, how int) error
	stat  func(path string, st *unix.Stat_t) error
}

// NewLocker returns a Locker backed by the real flock(2) and stat(2).
func NewLocker() *Locker {
	return &Locker{
		flock: unix.Flock,
		stat:  unix.Stat,
	}
}

// Lock acquires an exclusive lock on the file at path, blocking until the lock
// is available. Missing parent directories and the file are created.
//
// Lock blocks in the kernel with no timeout. Use [Locker.LockWithTimeout] or
// [Locker.TryLock] to bound the wait.
func (l *Locker) Lock(path string) (*Lock, error) {
	return l.lockBlocking(path, exclusiveLock)
}

// RLock acquires a shared lock on the file at path, blocking until the lock is
// available. Shared locks coexist with each other and exclude exclusive locks.
func (l *Locker) RLock(path string) (*Lock, error) {
	return l.lockBlocking(path, sharedLock)
}

// LockWithTimeout attempts to acquire an exclusive lock, polling with
// backoff (1ms to 25ms) until the timeout expires. The timeout is
// best-effort and may overshoot under scheduler delay.
//
// Returns an error satisfying errors.Is(err, [ErrWouldBlock]) on timeout and
// [ErrInvalidTimeout] if timeout <= 0.
func (l *Locker) LockWithTimeout(path string, timeout time.Duration) (*Lock, error) {
	if timeout <= 0 {
		return nil, fmt.Errorf("%w: timeout must be > 0", ErrInvalidTimeout)
	}

	return l.lockPolling(path, exclusiveLock, timeout)
}

// RLockWithTimeout is [Locker.LockWithTimeout] for a shared lock.
func (l *Locker) RLockWithTimeout(path string, timeout time.Duration) (*Lock, error) {
	if timeout <= 0 {
		return nil, fmt.Errorf("%w: timeout must be > 0", ErrInvalidTimeout)
	}

	return l.lockPolling(path, sharedLock, timeout)
}

// TryLock attempts to acquire an exclusive lock without blocking.
func (l *Locker) TryLock(path string) (*Lock, error) {
	return l.lockPolling(path, exclusiveLock, 0)
}

// TryRLock attempts to acquire a shared lock without blocking.
func (l *Locker) TryRLock(path string) (*Lock, error) {
	return l.lockPolling(path, sharedLock, 0)
}

type lockType int

const (
	sharedLock    lockType = unix.LOCK_SH
	exclusiveLock lockType = unix.LOCK_EX
)

type lockMode int

const (
	lockModeBlocking lockMode = iota + 1
	lockModeNonBlocking
)

func (l *Locker) held(f *fd.FD) *Lock {
	lk := &Lock{}
	lk.Init(Policy{flock: l.flock}, f.Release())

	return lk
}

func (l *Locker) lockBlocking(path string, lt lockType) (*Lock, error) {
	for {
		f, err := l.openLockFile(path, lt)
		if err != nil {
			return nil, fmt.Errorf("opening lockfile: %w", err)
		}

		err = l.acquire(f, path, lt, lockModeBlocking)
		if err == nil {
			return l.held(f), nil
		}

		f.Drop()

		if errors.Is(err, errInodeMismatch) {
			continue
		}

		return nil, err
	}
}

// lockPolling attempts to acquire a lock using non-blocking flock with retries.
//
//   - timeout == 0: try once
//   - timeout > 0: retry with backoff until timeout
func (l *Locker) lockPolling(path string, lt lockType, timeout time.Duration) (*Lock, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	wait := newBackoff()

	for {
		f, err := l.openLockFile(path, lt)
		if err != nil {
			return nil, fmt.Errorf("opening lockfile: %w", err)
		}

		err = l.acquire(f, path, lt, lockModeNonBlocking)
		if err == nil {
			return l.held(f), nil
		}

		f.Drop()

		retryable := errors.Is(err, ErrWouldBlock) || errors.Is(err, errInodeMismatch)
		if !retryable {
			return nil, err
		}

		if timeout == 0 {
			if errors.Is(err, errInodeMismatch) {
				return nil, fmt.Errorf("%w: lock file was replaced while acquiring lock", ErrWouldBlock)
			}

			return nil, ErrWouldBlock
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			if errors.Is(err, errInodeMismatch) {
				return nil, fmt.Errorf("%w: timed out after %s (lock file was replaced while acquiring lock)", ErrWouldBlock, timeout)
			}

			return nil, fmt.Errorf("%w: timed out after %s", ErrWouldBlock, timeout)
		}

		time.Sleep(min(wait.NextBackOff(), remaining))
	}
}

// newBackoff returns the polling schedule: 1ms doubling up to 25ms, no
// jitter, no overall limit (the caller's deadline bounds it).
func newBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Millisecond
	b.MaxInterval = 25 * time.Millisecond
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	return b
}

// acquire flocks f and verifies the inode still matches path. On failure f
// is unlocked but not closed.
func (l *Locker) acquire(f *fd.FD, path string, lt lockType, mode lockMode) error {
	raw := f.Raw()

	how := int(lt)
	if mode == lockModeNonBlocking {
		how |= unix.LOCK_NB
	}

	code := owner.RetryInterrupted(func() error { return l.flock(raw, how) })
	if code.Failed() {
		if code.Temporary() {
			return ErrWouldBlock
		}

		return code.Wrap("flock")
	}

	match, err := l.inodeMatchesPath(path, f)
	if err != nil || !match {
		_ = owner.RetryInterrupted(func() error { return l.flock(raw, unix.LOCK_UN) })
	}

	switch {
	case errors.Is(err, os.ErrNotExist):
		return errInodeMismatch
	case err != nil:
		return fmt.Errorf("verifying inode match: %w", err)
	case !match:
		return errInodeMismatch
	}

	return nil
}

const (
	lockFilePerm = 0o600
	lockDirPerm  = 0o755
)

func (l *Locker) openLockFile(path string, lt lockType) (*fd.FD, error) {
	flags := fd.ReadWrite | fd.Create
	if lt == sharedLock {
		flags = fd.ReadOnly | fd.Create
	}

	r := fd.Open(path, flags, lockFilePerm)
	if r.OK() || r.Code() != errno.NotExist {
		return r.Get()
	}

	if err := os.MkdirAll(filepath.Dir(path), lockDirPerm); err != nil {
		return nil, err
	}

	return fd.Open(path, flags, lockFilePerm).Get()
}

// inodeMatchesPath reports whether f still refers to the file at path.
//
// flock locks an inode, not a pathname. If path is replaced (rename,
// delete+recreate) while we open and lock, we may hold a lock on an inode no
// other process will ever open again. Comparing (dev, ino) of the descriptor
// and the path right after flock closes that window.
func (l *Locker) inodeMatchesPath(path string, f *fd.FD) (bool, error) {
	st := f.Stat()
	if !st.OK() {
		return false, st.Code().Wrap("fstat")
	}

	var pathSt unix.Stat_t
	if err := l.stat(path, &pathSt); err != nil {
		return false, &os.PathError{Op: "stat", Path: path, Err: err}
	}

	open := st.Value()

	return open.Dev == pathSt.Dev && open.Ino == pathSt.Ino, nil
}
