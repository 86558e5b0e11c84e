// Package result provides Result and Option containers with chaining
// combinators for composing fallible steps without nested branching.
package result

import (
	"errors"
	"fmt"
)

// UnwrapError is the panic value raised when a Result or Option is
// unwrapped as the wrong variant. It marks a bug in the caller, not a
// data-level failure.
type UnwrapError struct {
	Op    string
	Cause error
}

func (e *UnwrapError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("result: %s on wrong variant", e.Op)
	}
	return fmt.Sprintf("result: %s on wrong variant: %v", e.Op, e.Cause)
}

// Unwrap returns the error held by an Err result, if any.
func (e *UnwrapError) Unwrap() error { return e.Cause }

// errNilErr replaces a nil error passed to Err so an Err result always
// carries something.
var errNilErr = errors.New("result: Err called with nil error")

// Result holds either a value (Ok) or an error (Err).
// The zero value is Ok with the zero value of T.
type Result[T any] struct {
	value T
	err   error
}

// Ok creates a successful Result.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Err creates a failed Result.
func Err[T any](err error) Result[T] {
	if err == nil {
		err = errNilErr
	}
	return Result[T]{err: err}
}

// From converts a conventional (value, error) pair into a Result.
func From[T any](v T, err error) Result[T] {
	if err != nil {
		return Err[T](err)
	}
	return Ok(v)
}

// IsOk reports whether r holds a value.
func (r Result[T]) IsOk() bool { return r.err == nil }

// IsErr reports whether r holds an error.
func (r Result[T]) IsErr() bool { return r.err != nil }

// Get returns the value and error as a conventional pair.
func (r Result[T]) Get() (T, error) { return r.value, r.err }

// Unwrap returns the value, panicking with *UnwrapError if r is Err.
func (r Result[T]) Unwrap() T {
	if r.err != nil {
		panic(&UnwrapError{Op: "Unwrap", Cause: r.err})
	}
	return r.value
}

// UnwrapErr returns the error, panicking with *UnwrapError if r is Ok.
func (r Result[T]) UnwrapErr() error {
	if r.err == nil {
		panic(&UnwrapError{Op: "UnwrapErr"})
	}
	return r.err
}

// UnwrapOr returns the value, or def if r is Err.
func (r Result[T]) UnwrapOr(def T) T {
	if r.err != nil {
		return def
	}
	return r.value
}

// UnwrapOrElse returns the value, or the result of fn applied to the error.
func (r Result[T]) UnwrapOrElse(fn func(error) T) T {
	if r.err != nil {
		return fn(r.err)
	}
	return r.value
}

// Ok converts r into an Option of its value.
func (r Result[T]) Ok() Option[T] {
	if r.err != nil {
		return None[T]()
	}
	return Some(r.value)
}

// Err converts r into an Option of its error.
func (r Result[T]) Err() Option[error] {
	if r.err != nil {
		return Some(r.err)
	}
	return None[error]()
}

// MapErr transforms the error of an Err result.
func (r Result[T]) MapErr(fn func(error) error) Result[T] {
	if r.err == nil {
		return r
	}
	return Err[T](fn(r.err))
}

// Match calls ok or err depending on the variant.
func (r Result[T]) Match(ok func(T), err func(error)) {
	if r.err != nil {
		err(r.err)
		return
	}
	ok(r.value)
}

// Run calls fn with the value of an Ok result and returns r unchanged.
func (r Result[T]) Run(fn func(T)) Result[T] {
	if r.err == nil {
		fn(r.value)
	}
	return r
}

// Exec calls fn with the value of an Ok result. An error returned by fn,
// or a panic inside it, turns the result into Err.
func (r Result[T]) Exec(fn func(T) error) (out Result[T]) {
	if r.err != nil {
		return r
	}
	defer func() {
		if p := recover(); p != nil {
			out = Err[T](panicError(p))
		}
	}()
	if err := fn(r.value); err != nil {
		return Err[T](err)
	}
	return r
}

func (r Result[T]) String() string {
	if r.err != nil {
		return fmt.Sprintf("Err(%v)", r.err)
	}
	return fmt.Sprintf("Ok(%v)", r.value)
}

// Map transforms the value of an Ok result.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.err != nil {
		return Err[U](r.err)
	}
	return Ok(fn(r.value))
}

// AndThen chains a dependent step. It short-circuits on Err, so fn never
// runs after a failure and the first error is the one returned.
func AndThen[T, U any](r Result[T], fn func(T) Result[U]) Result[U] {
	if r.err != nil {
		return Err[U](r.err)
	}
	return fn(r.value)
}

// Fold reduces r to a single value using ok or err.
func Fold[T, U any](r Result[T], ok func(T) U, err func(error) U) U {
	if r.err != nil {
		return err(r.err)
	}
	return ok(r.value)
}

// All collects the values of every result. If any result is Err, the
// returned Err joins all of their errors in order.
func All[T any](rs ...Result[T]) Result[[]T] {
	values := make([]T, 0, len(rs))
	var errs []error
	for _, r := range rs {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		values = append(values, r.value)
	}
	if len(errs) > 0 {
		return Err[[]T](errors.Join(errs...))
	}
	return Ok(values)
}

func panicError(p any) error {
	switch v := p.(type) {
	case error:
		return v
	case string:
		return errors.New(v)
	default:
		return fmt.Errorf("panic: %v", v)
	}
}
