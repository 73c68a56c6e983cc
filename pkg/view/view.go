// Package view provides non-owning views over contiguous memory.
//
// Syscalls take buffers as (pointer, length). A Go slice already carries both,
// so [Span] is a thin typed wrapper that adds byte reinterpretation; the
// helpers [Object] and [As] convert between fixed-size values and their raw
// bytes, which is how option structs reach setsockopt, ioctl and mq_getsetattr.
//
// Nothing here allocates or copies. A view is valid only while the memory it
// refers to is: a view into an mmap region dies with the region.
package view

import (
	"unsafe"
)

// Span is a non-owning view of n contiguous values of T.
type Span[T any] struct {
	s []T
}

// Of returns a span over s. The span aliases s.
func Of[T any](s []T) Span[T] {
	return Span[T]{s: s}
}

// Len returns the number of elements.
func (v Span[T]) Len() int { return len(v.s) }

// Empty reports whether the span has no elements.
func (v Span[T]) Empty() bool { return len(v.s) == 0 }

// Slice returns the aliased slice.
func (v Span[T]) Slice() []T { return v.s }

// Size returns the span length in bytes.
func (v Span[T]) Size() int {
	var zero T
	return len(v.s) * int(unsafe.Sizeof(zero))
}

// Sub returns the elements [from, to). It panics like a slice expression on
// out-of-range bounds.
func (v Span[T]) Sub(from, to int) Span[T] {
	return Span[T]{s: v.s[from:to]}
}

// Bytes reinterprets the span's memory as bytes. T must not contain Go
// pointers if the bytes are handed to the kernel.
func (v Span[T]) Bytes() []byte {
	if len(v.s) == 0 {
		return nil
	}

	return unsafe.Slice((*byte)(unsafe.Pointer(&v.s[0])), v.Size())
}

// Pointer returns the address of the first element, or nil for an empty span.
func (v Span[T]) Pointer() unsafe.Pointer {
	if len(v.s) == 0 {
		return nil
	}

	return unsafe.Pointer(&v.s[0])
}

// Object returns the bytes of the value p points to.
func Object[T any](p *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), unsafe.Sizeof(*p))
}

// As returns a typed pointer into b. It reports false if b is shorter than T
// or not suitably aligned for T.
func As[T any](b []byte) (*T, bool) {
	var zero T

	size := unsafe.Sizeof(zero)
	if uintptr(len(b)) < size || size == 0 {
		return nil, false
	}

	p := unsafe.Pointer(&b[0])
	if uintptr(p)%unsafe.Alignof(zero) != 0 {
		return nil, false
	}

	return (*T)(p), true
}

// Raw returns a byte view of n bytes starting at p. The caller guarantees the
// memory stays valid for the lifetime of the returned slice.
func Raw(p unsafe.Pointer, n int) []byte {
	if p == nil || n <= 0 {
		return nil
	}

	return unsafe.Slice((*byte)(p), n)
}
