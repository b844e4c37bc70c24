// SPDX-License-Identifier: Apache-2.0

package compose

import (
	"reflect"
	"runtime"
	"strings"
	"unsafe"
)

type atomOptions struct {
	name string
}

// An AtomOption is a function option for [NewAtom] and related constructors.
type AtomOption func(*atomOptions)

// WithName sets the display name of an atom.
//
// By default the name is derived from the wrapped function, which gives
// unhelpful results for closures ("func1"). Use WithName to give such
// atoms a name that reads well in [FailureError] messages and traces.
//
// Example:
//
//	toInt := compose.MustAtom(strconv.Atoi, compose.WithName("int"))
func WithName(name string) AtomOption {
	return func(o *atomOptions) {
		o.name = name
	}
}

// funcName derives a short display name from a function value.
func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return "<unknown>"
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		// This branch cannot easily be tested, so ignore it in coverage reports.
		return "<unknown>"
	}
	return extractFunctionName(f.Name())
}

// extractFunctionName extracts the simple function name from a full Go function path.
//
// Examples:
//   - "github.com/sam-fredrickson/compose.Truthy" -> "Truthy"
//   - "main.(*Server).HandleRequest-fm" -> "HandleRequest"
//   - "strconv.Atoi" -> "Atoi"
//   - "github.com/user/pkg.init.0" -> "0"
func extractFunctionName(fullName string) string {
	// Split by path separators to get the last component
	parts := strings.Split(fullName, "/")
	lastPart := parts[len(parts)-1]

	// Method values carry a "-fm" suffix
	lastPart = strings.TrimSuffix(lastPart, "-fm")

	// Handle package.FunctionName or package.(*Type).Method
	if idx := strings.LastIndex(lastPart, "."); idx != -1 {
		lastPart = lastPart[idx+1:]
	}

	return lastPart
}

// funcIdentity returns the address of the function value held by fn.
//
// A func value points at a closure object, so each evaluation of a capturing
// function literal or method value has its own identity while top-level
// functions share one. The code pointer reported by reflect cannot tell
// closures of one literal apart. Returns 0 for anything that is not a
// non-nil function.
func funcIdentity(fn any) uintptr {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return 0
	}
	type eface struct {
		typ  unsafe.Pointer
		data unsafe.Pointer
	}
	return uintptr((*eface)(unsafe.Pointer(&fn)).data)
}
