// SPDX-License-Identifier: Apache-2.0

package compose

import (
	"reflect"
)

// A Func is a failable single-argument computation.
//
// It is the normalized form every atom calls into. Any Go function taking one
// argument can be turned into an atom with [NewAtom]; a Func is accepted as is.
type Func = func(any) (any, error)

// A Callable is anything that can be an element of a [Pipeline].
type Callable interface {
	// Call applies the computation to x.
	Call(x any) (any, error)

	// Name returns a display name used in diagnostics.
	Name() string
}

// A Composer is a Callable that supports composition.
//
// Both [Atom] and [Pipeline] implement Composer.
type Composer interface {
	Callable

	// After returns a Pipeline that applies other first and the receiver
	// second, so that c.After(d).Call(x) equals c.Call(d.Call(x)).
	//
	// If other is not a Composer, After declines with an [OperandError].
	After(other any) (*Pipeline, error)

	// Equal reports whether other represents the same computation.
	Equal(other Callable) bool

	String() string
}

type atomKind uint8

const (
	kindFunc atomKind = iota
	kindAttr
	kindItem
	kindPartial
	kindMap
	kindFilter
)

func (k atomKind) String() string {
	switch k {
	case kindFunc:
		return "func"
	case kindAttr:
		return "attr"
	case kindItem:
		return "item"
	case kindPartial:
		return "partial"
	case kindMap:
		return "map"
	case kindFilter:
		return "filter"
	default:
		return "unknown"
	}
}

// An Atom wraps a single-argument computation. It is the unit of composition.
//
// Atoms are immutable after construction and safe for concurrent use, as long
// as the wrapped function is.
//
// Calling an Atom directly never wraps the error returned by the wrapped
// function; only a [Pipeline] annotates failures with a [FailureError].
type Atom struct {
	kind atomKind
	name string
	fn   Func

	// target is the wrapped Go value for func and partial atoms.
	target any
	// ident is the function value identity of target.
	ident uintptr
	// callee is set when the atom wraps another Callable.
	callee Callable

	keys   []any
	args   []any
	kwargs Kwargs
	inner  Callable
}

// NewAtom wraps fn as an Atom.
//
// fn may be a [Func], a func(any) any, an existing [Callable], or any Go
// function with exactly one non-variadic parameter returning a single result
// or a (result, error) pair. Anything else is rejected with a
// [NotCallableError]. A [Pipeline] is rejected too: pipelines never nest, so
// compose with [NewPipeline] or [Shift] instead, which splice its elements.
//
// Arguments are passed to typed functions without conversion; an argument
// that is not assignable to the parameter type fails at call time with an
// [ArgTypeError].
//
// Example:
//
//	toInt, err := compose.NewAtom(strconv.Atoi)
//	n, err := toInt.Call("42") // 42
func NewAtom(fn any, opts ...AtomOption) (*Atom, error) {
	var options atomOptions
	for _, opt := range opts {
		opt(&options)
	}

	if a, ok := fn.(*Atom); ok && a != nil {
		if options.name == "" {
			return a, nil
		}
		return a.Rename(options.name), nil
	}

	atom := &Atom{kind: kindFunc, name: options.name}
	switch f := fn.(type) {
	case nil:
		return nil, &NotCallableError{Value: fn, Reason: "nil"}
	case *Pipeline:
		if f == nil {
			return nil, &NotCallableError{Value: fn, Reason: "nil pipeline"}
		}
		return nil, &NotCallableError{Value: fn, Reason: "a pipeline cannot be wrapped in an atom"}
	case Callable:
		if rv := reflect.ValueOf(f); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return nil, &NotCallableError{Value: fn, Reason: "nil callable"}
		}
		atom.callee = f
		atom.fn = f.Call
		if atom.name == "" {
			atom.name = f.Name()
		}
		return atom, nil
	}

	if atom.name == "" {
		atom.name = funcName(fn)
	}
	call, err := adapt(fn, atom.name)
	if err != nil {
		return nil, err
	}
	atom.fn = call
	atom.target = fn
	atom.ident = funcIdentity(fn)
	return atom, nil
}

// MustAtom is like [NewAtom] but panics if fn cannot be wrapped.
func MustAtom(fn any, opts ...AtomOption) *Atom {
	a, err := NewAtom(fn, opts...)
	if err != nil {
		panic(err)
	}
	return a
}

// Call applies the wrapped computation to x.
//
// Errors from the wrapped function are returned unmodified.
func (a *Atom) Call(x any) (any, error) {
	return a.fn(x)
}

// Name returns the display name of the atom.
//
// Specialized atoms include their construction arguments, for example
// "item(meta,id)", "partial(sorted)" or "map(Atoi)".
func (a *Atom) Name() string {
	if a == nil {
		return "<nil>"
	}
	return a.name
}

// String implements [fmt.Stringer].
func (a *Atom) String() string {
	return a.Name()
}

// Rename returns a copy of the atom with a different display name.
//
// The name takes no part in [Atom.Equal].
func (a *Atom) Rename(name string) *Atom {
	cp := *a
	cp.name = name
	return &cp
}

// After composes the atom with other; see [Composer].
func (a *Atom) After(other any) (*Pipeline, error) {
	return Shift(a, other)
}

// Equal reports whether other is an Atom of the same kind wrapping the same
// function value with the same bound data (accessor keys, partial arguments,
// or the mapped function). Closures made by separate evaluations of one
// function literal are different values.
func (a *Atom) Equal(other Callable) bool {
	o, ok := other.(*Atom)
	if !ok {
		return false
	}
	if a == o {
		return true
	}
	if a == nil || o == nil {
		return false
	}
	if a.kind != o.kind || a.ident != o.ident {
		return false
	}
	if !equalCallables(a.callee, o.callee) || !equalCallables(a.inner, o.inner) {
		return false
	}
	return reflect.DeepEqual(a.keys, o.keys) &&
		reflect.DeepEqual(a.args, o.args) &&
		reflect.DeepEqual(a.kwargs, o.kwargs)
}

func equalCallables(a, b Callable) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if eq, ok := a.(interface{ Equal(Callable) bool }); ok {
		return eq.Equal(b)
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

var errorType = reflect.TypeFor[error]()

// adapt normalizes fn into a Func, validating its shape.
func adapt(fn any, name string) (Func, error) {
	switch f := fn.(type) {
	case func(any) (any, error):
		return f, nil
	case func(any) any:
		return func(x any) (any, error) {
			return f(x), nil
		}, nil
	}

	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, &NotCallableError{Value: fn, Reason: "not a function"}
	}
	if v.IsNil() {
		return nil, &NotCallableError{Value: fn, Reason: "nil function"}
	}
	t := v.Type()
	if t.IsVariadic() || t.NumIn() != 1 {
		return nil, &NotCallableError{Value: fn, Reason: "must take exactly one argument"}
	}
	if reason := checkResults(t); reason != "" {
		return nil, &NotCallableError{Value: fn, Reason: reason}
	}

	in := t.In(0)
	return func(x any) (any, error) {
		arg, err := convertArg(x, in, name)
		if err != nil {
			return nil, err
		}
		return callResults(v.Call([]reflect.Value{arg}))
	}, nil
}

// checkResults returns a non-empty reason if t does not return a single
// value or a (value, error) pair.
func checkResults(t reflect.Type) string {
	switch t.NumOut() {
	case 1:
		return ""
	case 2:
		if t.Out(1) != errorType {
			return "second result must be an error"
		}
		return ""
	default:
		return "must return a result or a (result, error) pair"
	}
}

func callResults(out []reflect.Value) (any, error) {
	if len(out) == 2 {
		if err, _ := out[1].Interface().(error); err != nil {
			return nil, err
		}
	}
	return out[0].Interface(), nil
}

func convertArg(x any, want reflect.Type, name string) (reflect.Value, error) {
	if x == nil {
		switch want.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(want), nil
		}
		return reflect.Value{}, &ArgTypeError{Func: name, Want: want.String(), Arg: x}
	}
	v := reflect.ValueOf(x)
	if !v.Type().AssignableTo(want) {
		return reflect.Value{}, &ArgTypeError{Func: name, Want: want.String(), Arg: x}
	}
	return v, nil
}
