// Package mmap provides the memory-mapping resource kind.
//
// The raw handle of a [Mapping] is a [Region]: the mapped address and its
// length. The zero Region is the null sentinel. Releasing a region calls
// munmap(2).
//
// Byte views returned by [Mapping.Bytes] alias the mapping and must not be
// used after the mapping is closed.
package mmap

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/calvinalkan/sysown/pkg/errno"
	"github.com/calvinalkan/sysown/pkg/fd"
	"github.com/calvinalkan/sysown/pkg/owner"
	"github.com/calvinalkan/sysown/pkg/result"
	"github.com/calvinalkan/sysown/pkg/view"
)

// Region is an (address, length) pair returned by mmap(2).
type Region struct {
	addr   unsafe.Pointer
	length int
}

// Addr returns the start address.
func (r Region) Addr() unsafe.Pointer { return r.addr }

// Len returns the mapped length in bytes.
func (r Region) Len() int { return r.length }

// Policy releases a region with munmap(2).
type Policy struct{}

// Null implements [owner.Policy].
func (Policy) Null() Region { return Region{} }

// Kind implements [owner.Policy].
func (Policy) Kind() string { return "mmap" }

// Reclaims implements [owner.Reclaimer]. A byte view from [Mapping.Bytes]
// does not keep the Mapping reachable, so a leaked region stays mapped.
func (Policy) Reclaims() bool { return false }

// Release implements [owner.Policy].
func (Policy) Release(r Region) errno.Code {
	return owner.RetryInterrupted(func() error { return unix.MunmapPtr(r.addr, uintptr(r.length)) })
}

// Mapping owns one mapped region.
type Mapping struct {
	owner.Owner[Region, Policy]
}

func wrap(r Region) *Mapping {
	m := &Mapping{}
	m.Init(Policy{}, r)

	return m
}

func mmap(rawfd int, offset int64, length int, prot Prot, flags Flag) result.Result[*Mapping] {
	if length <= 0 {
		return result.Err[*Mapping](errno.Invalid)
	}

	addr, err := unix.MmapPtr(rawfd, offset, nil, uintptr(length), int(prot), int(flags))
	if err != nil {
		return result.Err[*Mapping](errno.FromError(err))
	}

	return result.Ok(wrap(Region{addr: addr, length: length}))
}

// Map maps length bytes of f starting at offset. The mapping stays valid
// after f is closed.
func Map(f *fd.FD, offset int64, length int, prot Prot, flags Flag) result.Result[*Mapping] {
	if f.Empty() {
		return result.Err[*Mapping](errno.BadHandle)
	}

	return mmap(f.Raw(), offset, length, prot, flags)
}

// Anonymous maps length bytes of zeroed private memory.
func Anonymous(length int, prot Prot) result.Result[*Mapping] {
	return mmap(fd.Null, 0, length, prot, Private|anonymous)
}

// MapFile maps the whole file at path. Write in prot opens the file
// read-write. An empty file cannot be mapped and yields EINVAL.
func MapFile(path string, prot Prot, flags Flag) result.Result[*Mapping] {
	mode := fd.ReadOnly
	if prot.Has(Write) && flags.Has(Shared) {
		mode = fd.ReadWrite
	}

	f, err := fd.Open(path, mode, 0).Get()
	if err != nil {
		return result.Err[*Mapping](errno.FromError(err))
	}

	st := f.Stat()
	if !st.OK() {
		return closeAfter(f, st.Code())
	}

	r := mmap(f.Raw(), 0, int(st.Value().Size), prot, flags)
	if !r.OK() {
		return closeAfter(f, r.Code())
	}

	if code := f.Discard(); code.Failed() {
		r.Must().Drop()

		return result.Err[*Mapping](code)
	}

	return r
}

// closeAfter closes f on a failure path, keeping code as the reported error.
func closeAfter(f *fd.FD, code errno.Code) result.Result[*Mapping] {
	restore := errno.Preserve(&code)
	code = f.Discard()
	restore()

	return result.Err[*Mapping](code)
}

// Move transfers ownership to a new Mapping and leaves m Empty.
func (m *Mapping) Move() *Mapping {
	dst := wrap(Region{})
	m.TransferTo(&dst.Owner)

	return dst
}

// Len returns the mapped length, 0 when Empty.
func (m *Mapping) Len() int { return m.Raw().length }

// Bytes returns a view of the mapped memory, nil when Empty.
func (m *Mapping) Bytes() []byte {
	r := m.Raw()
	return view.Raw(r.addr, r.length)
}

// Sync flushes changes to the backing file with msync(2).
func (m *Mapping) Sync(flags SyncFlag) errno.Code {
	if m.Empty() {
		return errno.BadHandle
	}

	return errno.FromError(unix.Msync(m.Bytes(), int(flags)))
}

// Advise passes an access-pattern hint with madvise(2).
func (m *Mapping) Advise(advice Advice) errno.Code {
	if m.Empty() {
		return errno.BadHandle
	}

	return errno.FromError(unix.Madvise(m.Bytes(), int(advice)))
}

// Protect changes the protection of the whole mapping with mprotect(2).
func (m *Mapping) Protect(prot Prot) errno.Code {
	if m.Empty() {
		return errno.BadHandle
	}

	return errno.FromError(unix.Mprotect(m.Bytes(), int(prot)))
}

// Lock pins the mapping in memory with mlock(2).
func (m *Mapping) Lock() errno.Code {
	if m.Empty() {
		return errno.BadHandle
	}

	return errno.FromError(unix.Mlock(m.Bytes()))
}

// Unlock reverses [Mapping.Lock].
func (m *Mapping) Unlock() errno.Code {
	if m.Empty() {
		return errno.BadHandle
	}

	return errno.FromError(unix.Munlock(m.Bytes()))
}
