// SPDX-License-Identifier: Apache-2.0

package compose

import (
	"fmt"
	"iter"
	"reflect"
)

// An Iterator is a lazy, pull-based, one-shot sequence.
//
// Once an Iterator is exhausted, fails, or is closed, every further call to
// Next reports the end of the sequence. An Iterator is not safe for
// concurrent use.
type Iterator struct {
	next func() (any, bool, error)
	stop func()
	done bool
}

// NewIterator creates an Iterator from a next function.
//
// next returns the next value and true, or false when the sequence ends.
// stop, if non-nil, is called once when the iterator finishes or is closed.
func NewIterator(next func() (any, bool, error), stop func()) *Iterator {
	return &Iterator{next: next, stop: stop}
}

// Next returns the next value. It returns (nil, false, nil) when the
// sequence is exhausted and (nil, false, err) when producing the value failed.
func (it *Iterator) Next() (any, bool, error) {
	if it.done {
		return nil, false, nil
	}
	v, ok, err := it.next()
	if err != nil {
		it.finish()
		return nil, false, err
	}
	if !ok {
		it.finish()
		return nil, false, nil
	}
	return v, true, nil
}

// All returns an iterator over the remaining values.
//
// A failure is yielded once as (nil, err) and ends the sequence. Breaking out
// of the loop early leaves the remaining values in the Iterator.
//
// Example:
//
//	for v, err := range it.All() {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(v)
//	}
func (it *Iterator) All() iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		for {
			v, ok, err := it.Next()
			if err != nil {
				yield(nil, err)
				return
			}
			if !ok || !yield(v, nil) {
				return
			}
		}
	}
}

// String implements [fmt.Stringer].
func (it *Iterator) String() string {
	return "<iterator>"
}

// Close releases the iterator. Further calls to Next report the end.
func (it *Iterator) Close() {
	it.finish()
}

func (it *Iterator) finish() {
	it.done = true
	if it.stop != nil {
		it.stop()
		it.stop = nil
	}
}

// Iterable is implemented by values that can produce their own [Iterator].
type Iterable interface {
	Iter() *Iterator
}

// Iterate returns an Iterator over v.
//
// Supported inputs are *Iterator (returned as is, so exhaustion is shared),
// [Iterable], []any, [Tuple], strings (one string per rune), iter.Seq[any],
// iter.Seq2[any, error], and any other slice or array. Other values fail
// with an error matching [ErrNotIterable].
func Iterate(v any) (*Iterator, error) {
	switch s := v.(type) {
	case *Iterator:
		if s == nil {
			break
		}
		return s, nil
	case Iterable:
		return s.Iter(), nil
	case []any:
		return sliceIterator(len(s), func(i int) any { return s[i] }), nil
	case Tuple:
		return sliceIterator(len(s), func(i int) any { return s[i] }), nil
	case string:
		runes := []rune(s)
		return sliceIterator(len(runes), func(i int) any { return string(runes[i]) }), nil
	case iter.Seq[any]:
		return seqIterator(s), nil
	case func(func(any) bool):
		return seqIterator(s), nil
	case iter.Seq2[any, error]:
		return seq2Iterator(s), nil
	case func(func(any, error) bool):
		return seq2Iterator(s), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return sliceIterator(rv.Len(), func(i int) any { return rv.Index(i).Interface() }), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotIterable, typeName(v))
}

func sliceIterator(n int, at func(int) any) *Iterator {
	i := 0
	return NewIterator(func() (any, bool, error) {
		if i >= n {
			return nil, false, nil
		}
		v := at(i)
		i++
		return v, true, nil
	}, nil)
}

func seqIterator(seq iter.Seq[any]) *Iterator {
	next, stop := iter.Pull(seq)
	return NewIterator(func() (any, bool, error) {
		v, ok := next()
		return v, ok, nil
	}, stop)
}

func seq2Iterator(seq iter.Seq2[any, error]) *Iterator {
	next, stop := iter.Pull2(seq)
	return NewIterator(func() (any, bool, error) {
		v, err, ok := next()
		if !ok {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	}, stop)
}

// Collect drains v into a slice.
//
// v may be anything accepted by [Iterate]. The first failure aborts
// collection.
func Collect(v any) ([]any, error) {
	it, err := Iterate(v)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	out := make([]any, 0)
	for {
		x, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, x)
	}
}

// Map returns an atom that lazily applies fn to each element of its input.
//
// fn may be any [Callable] or a function accepted by [NewAtom]. The input may
// be anything accepted by [Iterate]; an input that is not iterable fails when
// the atom is called. The atom returns an [*Iterator]; a failure of fn is
// reported while iterating as an [IndexedError] holding the element position.
//
// Example:
//
//	ints, _ := compose.Map(strconv.Atoi)
//	out, _ := ints.Call([]any{"1", "2"})
//	vals, _ := compose.Collect(out) // [1 2]
func Map(fn any) (*Atom, error) {
	return bindTransform(kindMap, fn, mapIterator)
}

// Filter returns an atom that lazily keeps the elements of its input for
// which fn returns a [Truthy] result, preserving order.
//
// fn, the input and the result follow the same rules as [Map].
//
// Example:
//
//	nonEmpty, _ := compose.Filter(compose.Truthy)
func Filter(fn any) (*Atom, error) {
	return bindTransform(kindFilter, fn, filterIterator)
}

// MustMap is like [Map] but panics on error.
func MustMap(fn any) *Atom {
	a, err := Map(fn)
	if err != nil {
		panic(err)
	}
	return a
}

// MustFilter is like [Filter] but panics on error.
func MustFilter(fn any) *Atom {
	a, err := Filter(fn)
	if err != nil {
		panic(err)
	}
	return a
}

// bindTransform binds a lazy transform to the user function, leaving the
// input sequence as the deferred argument.
func bindTransform(kind atomKind, fn any, transform func(Callable, *Iterator) *Iterator) (*Atom, error) {
	inner, err := asCallable(fn)
	if err != nil {
		return nil, err
	}
	return &Atom{
		kind:  kind,
		name:  kind.String() + "(" + inner.Name() + ")",
		inner: inner,
		fn: func(x any) (any, error) {
			src, err := Iterate(x)
			if err != nil {
				return nil, err
			}
			return transform(inner, src), nil
		},
	}, nil
}

func asCallable(fn any) (Callable, error) {
	if c, ok := fn.(Callable); ok {
		if rv := reflect.ValueOf(c); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return nil, &NotCallableError{Value: fn, Reason: "nil callable"}
		}
		return c, nil
	}
	return NewAtom(fn)
}

func mapIterator(fn Callable, src *Iterator) *Iterator {
	i := 0
	return NewIterator(func() (any, bool, error) {
		v, ok, err := src.Next()
		if err != nil || !ok {
			return nil, false, err
		}
		idx := i
		i++
		out, err := fn.Call(v)
		if err != nil {
			return nil, false, &IndexedError{Index: idx, Err: err}
		}
		return out, true, nil
	}, src.Close)
}

func filterIterator(fn Callable, src *Iterator) *Iterator {
	i := 0
	return NewIterator(func() (any, bool, error) {
		for {
			v, ok, err := src.Next()
			if err != nil || !ok {
				return nil, false, err
			}
			idx := i
			i++
			keep, err := fn.Call(v)
			if err != nil {
				return nil, false, &IndexedError{Index: idx, Err: err}
			}
			if Truthy(keep) {
				return v, true, nil
			}
		}
	}, src.Close)
}
