// SPDX-License-Identifier: Apache-2.0

package compose

import (
	"reflect"
	"strings"
)

// A Pipeline is an ordered, immutable, non-empty sequence of Callables.
//
// Pipelines are flat: a Pipeline never holds another Pipeline as an element.
// Composing or constructing with a Pipeline operand splices its elements in
// place.
//
// Calling a Pipeline with elements [e0, e1, ..., en] evaluates
// e0(e1(...en(x)...)): the last element is applied first. This reads like
// function composition, so a.After(b) is "a after b".
type Pipeline struct {
	elems []Callable
}

// NewPipeline builds a Pipeline from the given elements.
//
// Elements may be Atoms, other Pipelines (spliced), any [Callable], or Go
// functions accepted by [NewAtom]. Construction fails with an [ArityError]
// when no elements are given and with a [NotCallableError] when an element
// cannot be called with a single argument.
//
// Example:
//
//	p, err := compose.NewPipeline(strconv.Itoa, addOne) // Itoa(addOne(x))
func NewPipeline(elems ...any) (*Pipeline, error) {
	if len(elems) == 0 {
		return nil, &ArityError{Func: "Pipeline", Want: 1, Got: 0}
	}
	flat := make([]Callable, 0, len(elems))
	for _, e := range elems {
		var err error
		flat, err = appendElement(flat, e)
		if err != nil {
			return nil, err
		}
	}
	return &Pipeline{elems: flat}, nil
}

// MustPipeline is like [NewPipeline] but panics on error.
func MustPipeline(elems ...any) *Pipeline {
	p, err := NewPipeline(elems...)
	if err != nil {
		panic(err)
	}
	return p
}

func appendElement(dst []Callable, e any) ([]Callable, error) {
	switch e := e.(type) {
	case *Pipeline:
		if e == nil {
			return nil, &NotCallableError{Value: e, Reason: "nil pipeline"}
		}
		return append(dst, e.elems...), nil
	case *Atom:
		if e == nil {
			return nil, &NotCallableError{Value: e, Reason: "nil atom"}
		}
		return append(dst, e), nil
	case Callable:
		if rv := reflect.ValueOf(e); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return nil, &NotCallableError{Value: e, Reason: "nil callable"}
		}
		return append(dst, e), nil
	}
	a, err := NewAtom(e)
	if err != nil {
		return nil, err
	}
	return append(dst, a), nil
}

// Shift composes p after q, producing a flat Pipeline.
//
// The merge rule is:
//   - both Pipelines: p's elements followed by q's elements
//   - only p a Pipeline: p's elements followed by q
//   - only q a Pipeline: p followed by q's elements
//   - neither: [p, q]
//
// This makes composition associative: Shift(Shift(a, b), c) and
// Shift(a, Shift(b, c)) have identical elements.
//
// If either operand is not a [Composer], Shift declines with an
// [OperandError] matching [ErrUnsupportedOperand].
func Shift(p, q any) (*Pipeline, error) {
	if !isComposer(p) || !isComposer(q) {
		return nil, &OperandError{Left: p, Right: q}
	}
	elems := make([]Callable, 0, operandLen(p)+operandLen(q))
	elems = appendOperand(elems, p)
	elems = appendOperand(elems, q)
	return &Pipeline{elems: elems}, nil
}

func isComposer(v any) bool {
	c, ok := v.(Composer)
	if !ok {
		return false
	}
	if rv := reflect.ValueOf(c); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return false
	}
	return true
}

func operandLen(v any) int {
	if p, ok := v.(*Pipeline); ok {
		return len(p.elems)
	}
	return 1
}

func appendOperand(dst []Callable, v any) []Callable {
	if p, ok := v.(*Pipeline); ok {
		return append(dst, p.elems...)
	}
	return append(dst, v.(Callable))
}

// Call threads x through the elements from last to first.
//
// The first failing element aborts the call. Its error, or a panic it raised,
// is returned wrapped in a [FailureError] that records the element and the
// argument it received.
func (p *Pipeline) Call(x any) (any, error) {
	return p.run(x, nil)
}

func (p *Pipeline) run(x any, tr *trace) (any, error) {
	for i := len(p.elems) - 1; i >= 0; i-- {
		e := p.elems[i]

		var idx eventIdx
		if tr != nil {
			idx = tr.newEvent(i, e, x)
		}
		out, err := guardedApply(e, x)
		if tr != nil {
			tr.recordFinish(idx, err)
		}
		if err != nil {
			return nil, err
		}
		x = out
	}
	return x, nil
}

// guardedApply calls e on x, converting errors and panics into a FailureError.
func guardedApply(e Callable, x any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &FailureError{Element: e, Arg: x, Err: &RecoveredPanic{Value: r}}
		}
	}()
	out, err = e.Call(x)
	if err != nil {
		return nil, &FailureError{Element: e, Arg: x, Err: err}
	}
	return out, nil
}

// After composes the pipeline with other; see [Composer].
func (p *Pipeline) After(other any) (*Pipeline, error) {
	return Shift(p, other)
}

// Atoms returns a copy of the pipeline's elements in sequence order.
func (p *Pipeline) Atoms() []Callable {
	return append([]Callable(nil), p.elems...)
}

// Len returns the number of elements.
func (p *Pipeline) Len() int {
	return len(p.elems)
}

// Equal reports whether other is a Pipeline whose elements are element-wise
// equal to p's.
func (p *Pipeline) Equal(other Callable) bool {
	o, ok := other.(*Pipeline)
	if !ok {
		return false
	}
	if p == o {
		return true
	}
	if p == nil || o == nil || len(p.elems) != len(o.elems) {
		return false
	}
	for i := range p.elems {
		if !equalCallables(p.elems[i], o.elems[i]) {
			return false
		}
	}
	return true
}

// Name returns the same text as [Pipeline.String].
func (p *Pipeline) Name() string {
	return p.String()
}

// String shows the display name of each element in sequence order, e.g.
// "<Pipeline: sum,map(Atoi),str>".
func (p *Pipeline) String() string {
	if p == nil {
		return "<nil>"
	}
	names := make([]string, len(p.elems))
	for i, e := range p.elems {
		names[i] = e.Name()
	}
	return "<Pipeline: " + strings.Join(names, ",") + ">"
}
