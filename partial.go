// SPDX-License-Identifier: Apache-2.0

package compose

import (
	"fmt"
	"maps"
	"reflect"
)

// Kwargs holds keyword arguments bound by [PartialKw].
type Kwargs = map[string]any

// A KwFunc receives positional and keyword arguments.
//
// It is the only function shape that can have keyword arguments bound, since
// Go functions have no named parameters at run time.
type KwFunc = func(args []any, kwargs Kwargs) (any, error)

// Partial binds fn together with leading arguments, deferring only the last
// one. Calling the resulting atom with x invokes fn(args..., x).
//
// fn may be a [KwFunc] or any Go function whose parameter list accepts
// len(args)+1 arguments, including variadic functions. Bound arguments are
// checked against the parameter types at construction; the deferred argument
// is checked at call time.
//
// The atom is named after fn, e.g. "partial(Repeat)".
//
// Example:
//
//	twice, _ := compose.Partial(strings.Repeat, "ab")
//	s, _ := twice.Call(2) // "abab"
func Partial(fn any, args ...any) (*Atom, error) {
	if kw, ok := fn.(KwFunc); ok {
		return PartialKw(kw, nil, args...)
	}
	return newPartial(fn, args)
}

// PartialKw binds fn together with leading positional arguments and keyword
// arguments. Calling the resulting atom with x invokes fn(append(args, x),
// kwargs).
//
// Example:
//
//	sorted := func(args []any, kw compose.Kwargs) (any, error) { ... }
//	desc, _ := compose.PartialKw(sorted, compose.Kwargs{"reverse": true})
func PartialKw(fn KwFunc, kwargs Kwargs, args ...any) (*Atom, error) {
	if fn == nil {
		return nil, &NotCallableError{Value: fn, Reason: "nil function"}
	}
	args = cloneArgs(args)
	kwargs = cloneKwargs(kwargs)
	return &Atom{
		kind:   kindPartial,
		name:   "partial(" + funcName(fn) + ")",
		target: fn,
		ident:  funcIdentity(fn),
		args:   args,
		kwargs: kwargs,
		fn: func(x any) (any, error) {
			call := make([]any, len(args), len(args)+1)
			copy(call, args)
			kw := make(Kwargs, len(kwargs))
			maps.Copy(kw, kwargs)
			return fn(append(call, x), kw)
		},
	}, nil
}

// MustPartial is like [Partial] but panics on error.
func MustPartial(fn any, args ...any) *Atom {
	a, err := Partial(fn, args...)
	if err != nil {
		panic(err)
	}
	return a
}

// newPartial validates a plain Go function against the bound arguments.
func newPartial(fn any, args []any) (*Atom, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, &NotCallableError{Value: fn, Reason: "not a function"}
	}
	if v.IsNil() {
		return nil, &NotCallableError{Value: fn, Reason: "nil function"}
	}
	t := v.Type()
	n := len(args) + 1
	if (!t.IsVariadic() && t.NumIn() != n) || (t.IsVariadic() && n < t.NumIn()-1) {
		return nil, &NotCallableError{
			Value:  fn,
			Reason: fmt.Sprintf("takes %d arguments, %d bound plus one deferred", t.NumIn(), len(args)),
		}
	}
	if reason := checkResults(t); reason != "" {
		return nil, &NotCallableError{Value: fn, Reason: reason}
	}

	name := "partial(" + funcName(fn) + ")"
	bound := make([]reflect.Value, len(args))
	for i, arg := range args {
		rv, err := convertArg(arg, paramType(t, i), name)
		if err != nil {
			return nil, err
		}
		bound[i] = rv
	}
	last := paramType(t, len(args))

	return &Atom{
		kind:   kindPartial,
		name:   name,
		target: fn,
		ident:  funcIdentity(fn),
		args:   cloneArgs(args),
		fn: func(x any) (any, error) {
			arg, err := convertArg(x, last, name)
			if err != nil {
				return nil, err
			}
			in := make([]reflect.Value, len(bound), len(bound)+1)
			copy(in, bound)
			return callResults(v.Call(append(in, arg)))
		},
	}, nil
}

func paramType(t reflect.Type, i int) reflect.Type {
	if t.IsVariadic() && i >= t.NumIn()-1 {
		return t.In(t.NumIn() - 1).Elem()
	}
	return t.In(i)
}

func cloneArgs(args []any) []any {
	if len(args) == 0 {
		return nil
	}
	return append([]any(nil), args...)
}

func cloneKwargs(kwargs Kwargs) Kwargs {
	if len(kwargs) == 0 {
		return nil
	}
	return maps.Clone(kwargs)
}
