package mmap

import "golang.org/x/sys/unix"

// Prot is a set of page protections.
type Prot int

const (
	None  Prot = unix.PROT_NONE
	Read  Prot = unix.PROT_READ
	Write Prot = unix.PROT_WRITE
	Exec  Prot = unix.PROT_EXEC
)

// Has reports whether every bit of x is set in p.
func (p Prot) Has(x Prot) bool { return p&x == x }

// Flag is a set of mmap(2) flags.
type Flag int

const (
	Shared  Flag = unix.MAP_SHARED
	Private Flag = unix.MAP_PRIVATE

	anonymous Flag = unix.MAP_ANON
)

// Has reports whether every bit of x is set in f.
func (f Flag) Has(x Flag) bool { return f&x == x }

// SyncFlag selects msync(2) behaviour.
type SyncFlag int

const (
	SyncAsync      SyncFlag = unix.MS_ASYNC
	SyncWait       SyncFlag = unix.MS_SYNC
	SyncInvalidate SyncFlag = unix.MS_INVALIDATE
)

// Advice is a madvise(2) hint.
type Advice int

const (
	Normal     Advice = unix.MADV_NORMAL
	Random     Advice = unix.MADV_RANDOM
	Sequential Advice = unix.MADV_SEQUENTIAL
	WillNeed   Advice = unix.MADV_WILLNEED
	DontNeed   Advice = unix.MADV_DONTNEED
)
