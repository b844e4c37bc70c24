// SPDX-License-Identifier: Apache-2.0

package compose

import (
	"fmt"
	"math"
	"reflect"
	"strings"
)

// PathDelimiter separates the segments of a dot-path key.
const PathDelimiter = "."

// A Tuple is the ordered result of a multi-key accessor.
type Tuple []any

// ItemGetter is implemented by values that provide their own index or key
// lookup. [Item] prefers it over the built-in container support.
type ItemGetter interface {
	GetItem(key any) (any, error)
}

// AttrGetter is implemented by values that provide their own attribute
// lookup. [Attr] prefers it over struct fields and methods.
type AttrGetter interface {
	GetAttr(name string) (any, error)
}

// An Accessor is the result of [Item]: either a single atom or, for a dot-path
// key, a Pipeline with one atom per path segment. Exactly one field is set.
type Accessor struct {
	Single   *Atom
	Composed *Pipeline
}

// Composer returns whichever of Single or Composed is set.
func (a Accessor) Composer() Composer {
	if a.Composed != nil {
		return a.Composed
	}
	return a.Single
}

// Call calls the underlying atom or pipeline.
func (a Accessor) Call(x any) (any, error) {
	return a.Composer().Call(x)
}

// Item returns an accessor extracting one or more indexes or keys.
//
// With a single key the accessor returns the extracted element; with several
// keys it returns a [Tuple] in argument order. Integer keys index sequences
// (negative values count from the end) and any key can look up mappings. The
// choice is made at call time from what the input supports.
//
// A lone string key containing [PathDelimiter] is split into segments and
// Item returns a Pipeline of single-key accessors that extracts the segments
// left to right:
//
//	acc, _ := compose.Item("meta.info.value")
//	acc.Composed.Len() // 3
//	v, _ := acc.Call(map[string]any{"meta": map[string]any{"info": map[string]any{"value": 7}}}) // 7
//
// Item fails with an [ArityError] when called without keys.
func Item(keys ...any) (Accessor, error) {
	if len(keys) == 0 {
		return Accessor{}, &ArityError{Func: "item", Want: 1, Got: 0}
	}
	if len(keys) == 1 {
		if path, ok := keys[0].(string); ok {
			segments := strings.Split(path, PathDelimiter)
			if len(segments) > 1 {
				// the first segment must be applied first, so it goes last
				elems := make([]Callable, len(segments))
				for i, segment := range segments {
					elems[len(segments)-1-i] = newItemAtom([]any{segment})
				}
				return Accessor{Composed: &Pipeline{elems: elems}}, nil
			}
		}
	}
	return Accessor{Single: newItemAtom(keys)}, nil
}

// MustItem is like [Item] but panics on error and returns the Composer.
func MustItem(keys ...any) Composer {
	acc, err := Item(keys...)
	if err != nil {
		panic(err)
	}
	return acc.Composer()
}

func newItemAtom(keys []any) *Atom {
	keys = append([]any(nil), keys...)
	return &Atom{
		kind: kindItem,
		name: "item(" + joinKeys(keys) + ")",
		keys: keys,
		fn: func(x any) (any, error) {
			if len(keys) == 1 {
				return getItem(x, keys[0])
			}
			out := make(Tuple, len(keys))
			for i, key := range keys {
				v, err := getItem(x, key)
				if err != nil {
					return nil, err
				}
				out[i] = v
			}
			return out, nil
		},
	}
}

// Attr returns an atom extracting one or more attributes.
//
// An attribute is resolved through [AttrGetter], then an exported method
// (called when it takes no arguments), then an exported struct field. A
// dotted name walks several levels within the one atom. Several names return
// a [Tuple] in argument order.
//
// Attr fails with an [ArityError] when called without names.
func Attr(names ...string) (*Atom, error) {
	if len(names) == 0 {
		return nil, &ArityError{Func: "attr", Want: 1, Got: 0}
	}
	keys := make([]any, len(names))
	for i, name := range names {
		keys[i] = name
	}
	names = append([]string(nil), names...)
	return &Atom{
		kind: kindAttr,
		name: "attr(" + joinKeys(keys) + ")",
		keys: keys,
		fn: func(x any) (any, error) {
			if len(names) == 1 {
				return getAttrPath(x, names[0])
			}
			out := make(Tuple, len(names))
			for i, name := range names {
				v, err := getAttrPath(x, name)
				if err != nil {
					return nil, err
				}
				out[i] = v
			}
			return out, nil
		},
	}, nil
}

// MustAttr is like [Attr] but panics on error.
func MustAttr(names ...string) *Atom {
	a, err := Attr(names...)
	if err != nil {
		panic(err)
	}
	return a
}

func joinKeys(keys []any) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprint(k)
	}
	return strings.Join(parts, ",")
}

func getItem(x, key any) (any, error) {
	switch c := x.(type) {
	case nil:
		return nil, &LookupError{Key: key, Err: ErrNotSubscriptable}
	case ItemGetter:
		v, err := c.GetItem(key)
		if err != nil {
			return nil, &LookupError{Key: key, Err: err}
		}
		return v, nil
	case []any:
		return indexSequence(len(c), key, func(i int) any { return c[i] })
	case Tuple:
		return indexSequence(len(c), key, func(i int) any { return c[i] })
	case map[string]any:
		s, ok := key.(string)
		if !ok {
			return nil, &LookupError{Key: key, Err: ErrKeyNotFound}
		}
		v, ok := c[s]
		if !ok {
			return nil, &LookupError{Key: key, Err: ErrKeyNotFound}
		}
		return v, nil
	case map[any]any:
		if key != nil && !reflect.ValueOf(key).Comparable() {
			return nil, &LookupError{Key: key, Err: fmt.Errorf("%w: unhashable key type %T", ErrKeyNotFound, key)}
		}
		v, ok := c[key]
		if !ok {
			return nil, &LookupError{Key: key, Err: ErrKeyNotFound}
		}
		return v, nil
	case string:
		runes := []rune(c)
		return indexSequence(len(runes), key, func(i int) any { return string(runes[i]) })
	}
	return getItemReflect(x, key)
}

// getItemReflect covers typed slices, arrays and maps.
func getItemReflect(x, key any) (any, error) {
	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return indexSequence(rv.Len(), key, func(i int) any { return rv.Index(i).Interface() })
	case reflect.Map:
		kv := reflect.ValueOf(key)
		if !kv.IsValid() || !kv.Type().AssignableTo(rv.Type().Key()) {
			return nil, &LookupError{Key: key, Err: ErrKeyNotFound}
		}
		if !kv.Comparable() {
			return nil, &LookupError{Key: key, Err: fmt.Errorf("%w: unhashable key type %T", ErrKeyNotFound, key)}
		}
		v := rv.MapIndex(kv)
		if !v.IsValid() {
			return nil, &LookupError{Key: key, Err: ErrKeyNotFound}
		}
		return v.Interface(), nil
	}
	return nil, &LookupError{Key: key, Err: fmt.Errorf("%w: %T", ErrNotSubscriptable, x)}
}

func indexSequence(n int, key any, at func(int) any) (any, error) {
	i, ok := toIndex(key)
	if !ok {
		return nil, &LookupError{Key: key, Err: fmt.Errorf("%w: sequence index must be an integer, got %T", ErrNotSubscriptable, key)}
	}
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return nil, &LookupError{Key: key, Err: ErrIndexOutOfRange}
	}
	return at(i), nil
}

// toIndex converts an integer key to an int. Keys outside the int range
// are clamped, which leaves them out of range for any sequence.
func toIndex(key any) (int, bool) {
	switch k := key.(type) {
	case int:
		return k, true
	case int8:
		return int(k), true
	case int16:
		return int(k), true
	case int32:
		return int(k), true
	case int64:
		return clampSigned(k), true
	case uint:
		return clampUnsigned(uint64(k)), true
	case uint8:
		return int(k), true
	case uint16:
		return int(k), true
	case uint32:
		return clampUnsigned(uint64(k)), true
	case uint64:
		return clampUnsigned(k), true
	}
	return 0, false
}

func clampSigned(k int64) int {
	switch {
	case k > math.MaxInt:
		return math.MaxInt
	case k < math.MinInt:
		return math.MinInt
	}
	return int(k)
}

func clampUnsigned(k uint64) int {
	if k > math.MaxInt {
		return math.MaxInt
	}
	return int(k)
}

func getAttrPath(x any, path string) (any, error) {
	var err error
	for _, name := range strings.Split(path, PathDelimiter) {
		x, err = getAttr(x, name)
		if err != nil {
			return nil, err
		}
	}
	return x, nil
}

func getAttr(x any, name string) (any, error) {
	if g, ok := x.(AttrGetter); ok {
		v, err := g.GetAttr(name)
		if err != nil {
			return nil, &LookupError{Key: name, Err: err}
		}
		return v, nil
	}

	rv := reflect.ValueOf(x)
	if !rv.IsValid() {
		return nil, &LookupError{Key: name, Err: ErrAttrNotFound}
	}
	if m := rv.MethodByName(name); m.IsValid() {
		t := m.Type()
		if t.NumIn() == 0 && checkResults(t) == "" {
			return callResults(m.Call(nil))
		}
		return m.Interface(), nil
	}
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, &LookupError{Key: name, Err: ErrAttrNotFound}
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		if f := rv.FieldByName(name); f.IsValid() && f.CanInterface() {
			return f.Interface(), nil
		}
	}
	return nil, &LookupError{Key: name, Err: ErrAttrNotFound}
}
