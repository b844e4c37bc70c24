// SPDX-License-Identifier: Apache-2.0

package compose

import (
	"reflect"
)

// A Truther reports its own truth value to [Truthy].
type Truther interface {
	Truth() bool
}

// Truthy reports whether v counts as true.
//
// nil, false, numeric zeros, and empty strings, slices, arrays, maps and
// channels are false, as are nil pointers, funcs and interfaces. A [Truther]
// decides for itself. Everything else is true.
//
// Truthy is the test [Filter] applies to the result of its function, and can
// be passed to Filter directly:
//
//	nonEmpty, _ := compose.Filter(compose.Truthy)
func Truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case Truther:
		return v.Truth()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Chan, reflect.String:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface, reflect.Func:
		return !rv.IsNil()
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return !rv.IsZero()
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Complex64, reflect.Complex128:
		return rv.Complex() != 0
	}
	return true
}
