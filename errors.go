// SPDX-License-Identifier: Apache-2.0

package compose

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrArity signals a constructor called with the wrong number of arguments.
	ErrArity = errors.New("wrong number of arguments")

	// ErrNotCallable signals a value that cannot act as a single-argument function.
	ErrNotCallable = errors.New("not callable")

	// ErrUnsupportedOperand signals that composition was declined for an operand.
	ErrUnsupportedOperand = errors.New("unsupported operand")

	// ErrArgType signals a call argument that the wrapped function cannot accept.
	ErrArgType = errors.New("argument type mismatch")

	// ErrKeyNotFound signals a missing key in a mapping lookup.
	ErrKeyNotFound = errors.New("key not found")

	// ErrIndexOutOfRange signals a sequence index past either end.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrAttrNotFound signals a missing attribute.
	ErrAttrNotFound = errors.New("attribute not found")

	// ErrNotSubscriptable signals a value that supports neither index nor key access.
	ErrNotSubscriptable = errors.New("not subscriptable")

	// ErrNotIterable signals a value that cannot be iterated.
	ErrNotIterable = errors.New("not iterable")

	// ErrNotRegistered signals a function missing from a [Registry].
	ErrNotRegistered = errors.New("function not registered")

	// ErrDuplicate signals a second registration of a name or function.
	ErrDuplicate = errors.New("duplicate registration")

	// ErrInvalidDescriptor signals a [Descriptor] that cannot be built.
	ErrInvalidDescriptor = errors.New("invalid descriptor")
)

// FailureError is returned by [Pipeline.Call] when one of its elements fails.
//
// It records the failing element and the exact argument that element received.
// The original error is available through [errors.Unwrap], [errors.Is] and
// [errors.As].
//
// Example:
//
//	_, err := p.Call(input)
//	var fe *compose.FailureError
//	if errors.As(err, &fe) {
//	    log.Printf("%s failed on %v: %v", fe.Element.Name(), fe.Arg, fe.Err)
//	}
type FailureError struct {
	// Element is the pipeline element that failed.
	Element Callable
	// Arg is the value passed to Element.
	Arg any
	// Err is the original failure.
	Err error
}

// Error implements the error interface.
func (e *FailureError) Error() string {
	return fmt.Sprintf("%s(%s): %v", e.Element.Name(), repr(e.Arg), e.Err)
}

// Unwrap returns the original failure.
func (e *FailureError) Unwrap() error {
	return e.Err
}

// RecoveredPanic is an error type that wraps a panic value.
//
// Pipelines convert a panicking element into a [FailureError] whose cause is
// a RecoveredPanic.
type RecoveredPanic struct {
	Value any
}

func (p *RecoveredPanic) Error() string {
	return fmt.Sprintf("panic recovered: %v", p.Value)
}

// Unwrap returns the panic value when it is itself an error.
func (p *RecoveredPanic) Unwrap() error {
	err, _ := p.Value.(error)
	return err
}

// ArityError reports a constructor called with too few arguments.
type ArityError struct {
	// Func names the constructor.
	Func string
	// Want is the minimum number of arguments.
	Want int
	// Got is the number of arguments supplied.
	Got int
}

func (e *ArityError) Error() string {
	noun := "arguments"
	if e.Want == 1 {
		noun = "argument"
	}
	return fmt.Sprintf("%s expected at least %d %s, got %d", e.Func, e.Want, noun, e.Got)
}

// Is reports whether target is [ErrArity].
func (e *ArityError) Is(target error) bool {
	return target == ErrArity
}

// NotCallableError reports a value rejected at construction time because it
// is not a single-argument function.
type NotCallableError struct {
	Value  any
	Reason string
}

func (e *NotCallableError) Error() string {
	return fmt.Sprintf("all passed items must be callable, got %s instead: %s", repr(e.Value), e.Reason)
}

// Is reports whether target is [ErrNotCallable].
func (e *NotCallableError) Is(target error) bool {
	return target == ErrNotCallable
}

// OperandError is returned when composition is declined because one operand
// is neither an [Atom] nor a [Pipeline].
type OperandError struct {
	Left  any
	Right any
}

func (e *OperandError) Error() string {
	return fmt.Sprintf("unsupported operand type(s) for <<: '%s' and '%s'", typeName(e.Left), typeName(e.Right))
}

// Is reports whether target is [ErrUnsupportedOperand].
func (e *OperandError) Is(target error) bool {
	return target == ErrUnsupportedOperand
}

// ArgTypeError is returned at call time when an argument cannot be passed to
// the wrapped function's parameter type.
type ArgTypeError struct {
	Func string
	Want string
	Arg  any
}

func (e *ArgTypeError) Error() string {
	return fmt.Sprintf("%s: cannot use %s (type %s) as %s", e.Func, repr(e.Arg), typeName(e.Arg), e.Want)
}

// Is reports whether target is [ErrArgType].
func (e *ArgTypeError) Is(target error) bool {
	return target == ErrArgType
}

// LookupError reports a failed attribute, index or key extraction.
//
// Err is one of [ErrKeyNotFound], [ErrIndexOutOfRange], [ErrAttrNotFound]
// or [ErrNotSubscriptable], or an error returned by a capability method.
type LookupError struct {
	Key any
	Err error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s: %v", repr(e.Key), e.Err)
}

// Unwrap returns the underlying error.
func (e *LookupError) Unwrap() error {
	return e.Err
}

// IndexedError wraps an error with the position of the element that caused it.
//
// Iterators produced by [Map] and [Filter] report failures of the user
// function this way, and [CallAll] reports failures per input.
type IndexedError struct {
	Index int
	Err   error
}

// Error implements the error interface.
func (e *IndexedError) Error() string {
	return fmt.Sprintf("element %d: %v", e.Index, e.Err)
}

// Unwrap returns the underlying error for error inspection via errors.Is and errors.As.
func (e *IndexedError) Unwrap() error {
	return e.Err
}

func repr(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case string:
		return fmt.Sprintf("%q", v)
	case fmt.Stringer:
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return fmt.Sprintf("%T(nil)", v)
		}
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}
