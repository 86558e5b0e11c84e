package result

import "fmt"

// Option holds either a value (Some) or nothing (None).
// The zero value is None.
type Option[T any] struct {
	value T
	some  bool
}

// Some creates a present Option.
func Some[T any](v T) Option[T] {
	return Option[T]{value: v, some: true}
}

// None creates an absent Option.
func None[T any]() Option[T] {
	return Option[T]{}
}

// IsSome reports whether o holds a value.
func (o Option[T]) IsSome() bool { return o.some }

// IsNone reports whether o is empty.
func (o Option[T]) IsNone() bool { return !o.some }

// Get returns the value and whether it is present.
func (o Option[T]) Get() (T, bool) { return o.value, o.some }

// Unwrap returns the value, panicking with *UnwrapError if o is None.
func (o Option[T]) Unwrap() T {
	if !o.some {
		panic(&UnwrapError{Op: "Unwrap(None)"})
	}
	return o.value
}

// UnwrapOr returns the value, or def if o is None.
func (o Option[T]) UnwrapOr(def T) T {
	if !o.some {
		return def
	}
	return o.value
}

// UnwrapOrElse returns the value, or the result of fn if o is None.
func (o Option[T]) UnwrapOrElse(fn func() T) T {
	if !o.some {
		return fn()
	}
	return o.value
}

// Match calls some or none depending on the variant.
func (o Option[T]) Match(some func(T), none func()) {
	if o.some {
		some(o.value)
		return
	}
	none()
}

// OkOr converts o into a Result, using err when o is None.
func (o Option[T]) OkOr(err error) Result[T] {
	if !o.some {
		return Err[T](err)
	}
	return Ok(o.value)
}

func (o Option[T]) String() string {
	if !o.some {
		return "None"
	}
	return fmt.Sprintf("Some(%v)", o.value)
}

// MapOption transforms the value of a present Option.
func MapOption[T, U any](o Option[T], fn func(T) U) Option[U] {
	if !o.some {
		return None[U]()
	}
	return Some(fn(o.value))
}

// AsErr turns a write-style outcome into a Result: None becomes Ok(v),
// Some(err) becomes Err(err).
func AsErr[T any](o Option[error], v T) Result[T] {
	if err, ok := o.Get(); ok {
		return Err[T](err)
	}
	return Ok(v)
}

// FromError wraps a conventional error as an Option: nil becomes None.
func FromError(err error) Option[error] {
	if err == nil {
		return None[error]()
	}
	return Some(err)
}
