// SPDX-License-Identifier: Apache-2.0

package compose

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.yaml.in/yaml/v3"
)

// Descriptor kinds.
const (
	KindFunc     = "func"
	KindAttr     = "attr"
	KindItem     = "item"
	KindPartial  = "partial"
	KindMap      = "map"
	KindFilter   = "filter"
	KindPipeline = "pipeline"
)

// A Descriptor is the serializable form of an [Atom] or [Pipeline].
//
// Functions are referred to by their [Registry] name. Keys, bound arguments
// and keyword arguments are stored as given; only JSON-native values
// (strings, bools, int, float64, nil, []any and map[string]any) survive an
// encoding round trip unchanged.
//
// A descriptor in YAML:
//
//	kind: pipeline
//	elements:
//	  - kind: func
//	    func: sum
//	  - kind: map
//	    elements:
//	      - kind: func
//	        func: atoi
//	  - kind: item
//	    keys: [scores]
type Descriptor struct {
	Kind     string         `json:"kind" yaml:"kind"`
	Func     string         `json:"func,omitempty" yaml:"func,omitempty"`
	Name     string         `json:"name,omitempty" yaml:"name,omitempty"`
	Keys     []any          `json:"keys,omitempty" yaml:"keys,omitempty"`
	Args     []any          `json:"args,omitempty" yaml:"args,omitempty"`
	Kwargs   map[string]any `json:"kwargs,omitempty" yaml:"kwargs,omitempty"`
	Elements []Descriptor   `json:"elements,omitempty" yaml:"elements,omitempty"`
}

// Describe returns the descriptor of c.
//
// Plain and partial atoms must wrap a function value registered in r; otherwise
// Describe fails with an error matching [ErrNotRegistered]. Callables other
// than Atoms and Pipelines cannot be described.
func (r *Registry) Describe(c Callable) (Descriptor, error) {
	switch c := c.(type) {
	case *Pipeline:
		if c == nil {
			break
		}
		d := Descriptor{Kind: KindPipeline, Elements: make([]Descriptor, len(c.elems))}
		for i, e := range c.elems {
			ed, err := r.Describe(e)
			if err != nil {
				return Descriptor{}, err
			}
			d.Elements[i] = ed
		}
		return d, nil
	case *Atom:
		if c == nil {
			break
		}
		return r.describeAtom(c)
	}
	return Descriptor{}, fmt.Errorf("%w: cannot describe %s", ErrNotRegistered, typeName(c))
}

func (r *Registry) describeAtom(a *Atom) (Descriptor, error) {
	d := Descriptor{Kind: a.kind.String(), Name: a.name}
	switch a.kind {
	case kindFunc:
		if a.callee != nil {
			return Descriptor{}, fmt.Errorf("%w: cannot describe %s", ErrNotRegistered, typeName(a.callee))
		}
		name, err := r.registeredName(a)
		if err != nil {
			return Descriptor{}, err
		}
		d.Func = name
	case kindAttr, kindItem:
		d.Keys = cloneArgs(a.keys)
	case kindPartial:
		name, err := r.registeredName(a)
		if err != nil {
			return Descriptor{}, err
		}
		d.Func = name
		d.Args = cloneArgs(a.args)
		d.Kwargs = cloneKwargs(a.kwargs)
	case kindMap, kindFilter:
		inner, err := r.Describe(a.inner)
		if err != nil {
			return Descriptor{}, err
		}
		d.Elements = []Descriptor{inner}
	}
	return d, nil
}

func (r *Registry) registeredName(a *Atom) (string, error) {
	name, ok := r.nameOf(a.ident)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotRegistered, a.name)
	}
	return name, nil
}

// Build constructs the Atom or Pipeline described by d.
//
// Build applies the same validation as the constructors, so a descriptor for
// an empty pipeline fails with an [ArityError].
func (r *Registry) Build(d Descriptor) (Composer, error) {
	switch d.Kind {
	case KindPipeline:
		if len(d.Elements) == 0 {
			return nil, &ArityError{Func: "Pipeline", Want: 1, Got: 0}
		}
		elems := make([]any, len(d.Elements))
		for i, ed := range d.Elements {
			e, err := r.Build(ed)
			if err != nil {
				return nil, err
			}
			elems[i] = e
		}
		p, err := NewPipeline(elems...)
		if err != nil {
			return nil, err
		}
		return p, nil
	case KindFunc:
		var opts []AtomOption
		if d.Name != "" {
			opts = append(opts, WithName(d.Name))
		}
		if d.Func == "" {
			return nil, fmt.Errorf("%w: func needs a registered function name", ErrInvalidDescriptor)
		}
		fn, err := r.lookup(d.Func)
		if err != nil {
			return nil, err
		}
		return newComposerAtom(fn, opts...)
	case KindAttr:
		names := make([]string, len(d.Keys))
		for i, k := range d.Keys {
			s, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("%w: attribute name %v is not a string", ErrInvalidDescriptor, k)
			}
			names[i] = s
		}
		a, err := Attr(names...)
		if err != nil {
			return nil, err
		}
		return renamed(a, d.Name), nil
	case KindItem:
		if len(d.Keys) == 0 {
			return nil, &ArityError{Func: "item", Want: 1, Got: 0}
		}
		return renamed(newItemAtom(d.Keys), d.Name), nil
	case KindPartial:
		fn, err := r.lookup(d.Func)
		if err != nil {
			return nil, err
		}
		var a *Atom
		if kw, ok := fn.(KwFunc); ok {
			a, err = PartialKw(kw, d.Kwargs, d.Args...)
		} else if len(d.Kwargs) > 0 {
			return nil, fmt.Errorf("%w: %q does not take keyword arguments", ErrInvalidDescriptor, d.Func)
		} else {
			a, err = Partial(fn, d.Args...)
		}
		if err != nil {
			return nil, err
		}
		return renamed(a, d.Name), nil
	case KindMap, KindFilter:
		inner, err := r.buildSingle(d)
		if err != nil {
			return nil, err
		}
		var a *Atom
		if d.Kind == KindMap {
			a, err = Map(inner)
		} else {
			a, err = Filter(inner)
		}
		if err != nil {
			return nil, err
		}
		return renamed(a, d.Name), nil
	}
	return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidDescriptor, d.Kind)
}

func (r *Registry) buildSingle(d Descriptor) (Composer, error) {
	if len(d.Elements) != 1 {
		return nil, fmt.Errorf("%w: %s needs exactly one element, got %d", ErrInvalidDescriptor, d.Kind, len(d.Elements))
	}
	return r.Build(d.Elements[0])
}

// newComposerAtom is NewAtom without a typed nil on failure.
func newComposerAtom(fn any, opts ...AtomOption) (Composer, error) {
	a, err := NewAtom(fn, opts...)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func renamed(a *Atom, name string) *Atom {
	if name == "" || name == a.name {
		return a
	}
	return a.Rename(name)
}

// EncodeJSON encodes c as a JSON descriptor.
func (r *Registry) EncodeJSON(c Callable) ([]byte, error) {
	d, err := r.Describe(c)
	if err != nil {
		return nil, err
	}
	return json.Marshal(d)
}

// DecodeJSON builds the Atom or Pipeline encoded in data.
//
// Integral numbers in keys and arguments are restored as int, other numbers
// as float64.
func (r *Registry) DecodeJSON(data []byte) (Composer, error) {
	d, err := decodeJSONDescriptor(data)
	if err != nil {
		return nil, err
	}
	return r.Build(d)
}

// EncodeYAML encodes c as a YAML descriptor.
func (r *Registry) EncodeYAML(c Callable) ([]byte, error) {
	d, err := r.Describe(c)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(d)
}

// DecodeYAML builds the Atom or Pipeline encoded in data.
func (r *Registry) DecodeYAML(data []byte) (Composer, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to decode descriptor: %w", err)
	}
	normalizeDescriptor(&d)
	return r.Build(d)
}

func decodeJSONDescriptor(data []byte) (Descriptor, error) {
	var d Descriptor
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&d); err != nil {
		return Descriptor{}, fmt.Errorf("failed to decode descriptor: %w", err)
	}
	normalizeDescriptor(&d)
	return d, nil
}

// normalizeDescriptor converts decoded values to the types the constructors
// would have been given: json.Number becomes int or float64 and maps with
// non-string keys from YAML stay as they are.
func normalizeDescriptor(d *Descriptor) {
	d.Keys = normalizeSlice(d.Keys)
	d.Args = normalizeSlice(d.Args)
	if len(d.Kwargs) == 0 {
		d.Kwargs = nil
	}
	for k, v := range d.Kwargs {
		d.Kwargs[k] = normalizeValue(v)
	}
	for i := range d.Elements {
		normalizeDescriptor(&d.Elements[i])
	}
}

func normalizeSlice(vs []any) []any {
	if len(vs) == 0 {
		return nil
	}
	for i, v := range vs {
		vs[i] = normalizeValue(v)
	}
	return vs
}

func normalizeValue(v any) any {
	switch v := v.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
		f, _ := v.Float64()
		return f
	case []any:
		for i, e := range v {
			v[i] = normalizeValue(e)
		}
		return v
	case map[string]any:
		for k, e := range v {
			v[k] = normalizeValue(e)
		}
		return v
	}
	return v
}

// MarshalJSON encodes the atom using [DefaultRegistry].
func (a *Atom) MarshalJSON() ([]byte, error) {
	return DefaultRegistry.EncodeJSON(a)
}

// UnmarshalJSON decodes an atom using [DefaultRegistry].
//
// The data must describe a single atom, not a pipeline.
func (a *Atom) UnmarshalJSON(data []byte) error {
	d, err := decodeJSONDescriptor(data)
	if err != nil {
		return err
	}
	return a.assign(d)
}

// MarshalYAML encodes the atom using [DefaultRegistry].
func (a *Atom) MarshalYAML() (any, error) {
	return DefaultRegistry.Describe(a)
}

// UnmarshalYAML decodes an atom using [DefaultRegistry].
func (a *Atom) UnmarshalYAML(node *yaml.Node) error {
	var d Descriptor
	if err := node.Decode(&d); err != nil {
		return err
	}
	normalizeDescriptor(&d)
	return a.assign(d)
}

func (a *Atom) assign(d Descriptor) error {
	c, err := DefaultRegistry.Build(d)
	if err != nil {
		return err
	}
	built, ok := c.(*Atom)
	if !ok {
		return fmt.Errorf("%w: %s does not describe an atom", ErrInvalidDescriptor, d.Kind)
	}
	*a = *built
	return nil
}

// MarshalJSON encodes the pipeline using [DefaultRegistry].
func (p *Pipeline) MarshalJSON() ([]byte, error) {
	return DefaultRegistry.EncodeJSON(p)
}

// UnmarshalJSON decodes a pipeline using [DefaultRegistry].
//
// A descriptor of a single atom decodes to a one-element pipeline.
func (p *Pipeline) UnmarshalJSON(data []byte) error {
	d, err := decodeJSONDescriptor(data)
	if err != nil {
		return err
	}
	return p.assign(d)
}

// MarshalYAML encodes the pipeline using [DefaultRegistry].
func (p *Pipeline) MarshalYAML() (any, error) {
	return DefaultRegistry.Describe(p)
}

// UnmarshalYAML decodes a pipeline using [DefaultRegistry].
func (p *Pipeline) UnmarshalYAML(node *yaml.Node) error {
	var d Descriptor
	if err := node.Decode(&d); err != nil {
		return err
	}
	normalizeDescriptor(&d)
	return p.assign(d)
}

func (p *Pipeline) assign(d Descriptor) error {
	c, err := DefaultRegistry.Build(d)
	if err != nil {
		return err
	}
	built, err := NewPipeline(c)
	if err != nil {
		return err
	}
	*p = *built
	return nil
}
