// SPDX-License-Identifier: Apache-2.0

package compose

import (
	"fmt"
	"sync"
)

// A Registry names the Go functions that serialized atoms refer to.
//
// Functions cannot be encoded, so an encoded [Atom] stores the registered
// name of its function and decoding looks the name up again. Accessor atoms
// need no registration. A Registry is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]any
	byCode map[uintptr]string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]any),
		byCode: make(map[uintptr]string),
	}
}

// DefaultRegistry backs [Register] and the Marshal/Unmarshal methods of
// [Atom] and [Pipeline].
var DefaultRegistry = NewRegistry()

// Register records fn under name in [DefaultRegistry].
func Register(name string, fn any) error {
	return DefaultRegistry.Register(name, fn)
}

// MustRegister is like [Register] but panics on error.
func MustRegister(name string, fn any) {
	DefaultRegistry.MustRegister(name, fn)
}

// Register records fn under name.
//
// fn must be a non-nil function. Registering a name twice, or the same
// function value twice, fails with an error matching [ErrDuplicate]. Each
// closure is its own value: adder(1) and adder(2) can be registered under
// different names, and only atoms wrapping that exact value describe as it.
func (r *Registry) Register(name string, fn any) error {
	ident := funcIdentity(fn)
	if ident == 0 {
		return &NotCallableError{Value: fn, Reason: "only functions can be registered"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("%w: name %q", ErrDuplicate, name)
	}
	if other, ok := r.byCode[ident]; ok {
		return fmt.Errorf("%w: %s is already registered as %q", ErrDuplicate, funcName(fn), other)
	}
	r.byName[name] = fn
	r.byCode[ident] = name
	return nil
}

// MustRegister is like [Registry.Register] but panics on error.
func (r *Registry) MustRegister(name string, fn any) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// Lookup returns the function registered under name.
func (r *Registry) Lookup(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.byName[name]
	return fn, ok
}

func (r *Registry) nameOf(ident uintptr) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.byCode[ident]
	return name, ok
}

func (r *Registry) lookup(name string) (any, error) {
	fn, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	return fn, nil
}
