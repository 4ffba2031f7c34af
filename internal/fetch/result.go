// Package fetch holds the outcome type shared by every data source and the
// error taxonomy the status line degrades on.
package fetch

import (
	"fmt"
	"time"
)

// Kind tags which variant a Result holds.
type Kind int

const (
	KindSuccess Kind = iota
	KindFailure
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindFailure:
		return "failure"
	case KindTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is a tagged union over Success(value), Failure(err) and Timeout.
// Only the field matching the kind is meaningful.
type Result[T any] struct {
	kind  Kind
	value T
	err   error
	after time.Duration
}

func Success[T any](value T) Result[T] {
	return Result[T]{kind: KindSuccess, value: value}
}

// Failure builds a failed result. A nil err is replaced by ErrSubprocess so
// that a failure always carries a reason.
func Failure[T any](err error) Result[T] {
	if err == nil {
		err = ErrSubprocess
	}
	return Result[T]{kind: KindFailure, err: err}
}

func Timeout[T any](after time.Duration) Result[T] {
	return Result[T]{kind: KindTimeout, after: after}
}

func (r Result[T]) Kind() Kind { return r.kind }

func (r Result[T]) OK() bool { return r.kind == KindSuccess }

// Value returns the payload and whether the result is a success.
func (r Result[T]) Value() (T, bool) {
	if r.kind != KindSuccess {
		var zero T
		return zero, false
	}
	return r.value, true
}

// Err returns nil for successes, the failure cause, or an error wrapping
// ErrTimeout.
func (r Result[T]) Err() error {
	switch r.kind {
	case KindFailure:
		return r.err
	case KindTimeout:
		return fmt.Errorf("%w after %s", ErrTimeout, r.after)
	default:
		return nil
	}
}

// After is the timeout that expired; zero for other kinds.
func (r Result[T]) After() time.Duration { return r.after }

// Reason is a short diagnostic for non-success results.
func (r Result[T]) Reason() string {
	if err := r.Err(); err != nil {
		return err.Error()
	}
	return ""
}
