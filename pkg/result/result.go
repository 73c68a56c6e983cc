// Package result provides [Result], the return type of every fallible
// acquisition in this module: either a value or an [errno.Code], never both.
//
// Result interoperates with ordinary Go error handling through [Result.Get]:
//
//	f, err := fd.Open(path, fd.ReadOnly, 0).Get()
//	if err != nil {
//	    return err
//	}
//	defer f.Drop()
package result

import (
	"fmt"

	"github.com/calvinalkan/sysown/pkg/errno"
)

// Result holds either a value of type T or a failed [errno.Code].
//
// The zero Result holds the zero T and no error.
type Result[T any] struct {
	val  T
	code errno.Code
}

// Ok returns a successful Result holding v.
func Ok[T any](v T) Result[T] {
	return Result[T]{val: v}
}

// Err returns a failed Result holding code.
//
// Panics if code is [errno.None]: a failure without an error is a programming
// mistake, not a runtime condition.
func Err[T any](code errno.Code) Result[T] {
	if code.IsZero() {
		panic("result: Err called with errno.None")
	}

	return Result[T]{code: code}
}

// Of builds a Result from a conventional (value, error) pair. A non-nil err
// is converted with [errno.FromError] and v is discarded.
func Of[T any](v T, err error) Result[T] {
	if err != nil {
		return Err[T](errno.FromError(err))
	}

	return Ok(v)
}

// OK reports whether r holds a value.
func (r Result[T]) OK() bool { return r.code.IsZero() }

// Code returns the contained error, or [errno.None] when r holds a value.
func (r Result[T]) Code() errno.Code { return r.code }

// Value returns a pointer to the contained value, or nil when r holds an
// error.
func (r Result[T]) Value() *T {
	if !r.OK() {
		return nil
	}

	return &r.val
}

// Get returns the value and a nil error, or the zero T and the error
// converted with [errno.Code.Err].
func (r Result[T]) Get() (T, error) {
	if !r.OK() {
		var zero T
		return zero, r.code.Err()
	}

	return r.val, nil
}

// Must returns the value or panics with the error. Intended for tests and
// program setup.
func (r Result[T]) Must() T {
	if !r.OK() {
		panic(fmt.Sprintf("result: Must on error: %v", r.code))
	}

	return r.val
}

func (r Result[T]) String() string {
	if !r.OK() {
		return fmt.Sprintf("Err(%v)", r.code)
	}

	return fmt.Sprintf("Ok(%v)", r.val)
}

// Map applies f to the value of r. When r holds an error, the error is
// returned unchanged and f is not called.
func Map[T, U any](r Result[T], f func(T) U) Result[U] {
	if !r.OK() {
		return Result[U]{code: r.code}
	}

	return Ok(f(r.val))
}

// AndThen applies a fallible f to the value of r. When r holds an error, the
// error is returned unchanged and f is not called.
func AndThen[T, U any](r Result[T], f func(T) Result[U]) Result[U] {
	if !r.OK() {
		return Result[U]{code: r.code}
	}

	return f(r.val)
}
