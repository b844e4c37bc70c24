// SPDX-License-Identifier: Apache-2.0

// Package compose builds data-transformation pipelines from single-argument
// functions, with readable diagnostics when a step fails.
//
// # The Problem
//
// Chaining small conversions by hand (look up a key, convert each element,
// sum the result, format it) produces nested calls that are hard to read and
// harder to debug: when the third conversion fails, the error rarely says
// which step broke or what value it was given.
//
// Compose lets you build such chains from reusable parts, and reports the
// failing part together with the exact argument it received.
//
// # Core Concepts
//
// An [Atom] wraps one single-argument computation. [NewAtom] accepts any Go
// function with one parameter that returns a value or a (value, error) pair:
//
//	toInt, _ := compose.NewAtom(strconv.Atoi)
//
// A [Pipeline] is a flat, ordered sequence of atoms. Like mathematical
// function composition, the last element is applied first:
//
//	str := func(x any) string { return fmt.Sprint(x) }
//	p, _ := compose.NewPipeline(sum, compose.MustMap(strconv.Atoi), str)
//	out, _ := p.Call(763) // sum(map(Atoi, str(763))) == 16
//
// Composition is explicit and associative. a.After(b) is "a after b", and
// composing with a Pipeline splices its elements, so pipelines never nest:
//
//	ab, _ := a.After(b)   // <Pipeline: a,b>
//	abc, _ := ab.After(c) // <Pipeline: a,b,c>
//
// # Specialized Atoms
//
//   - [Item] extracts indexes or keys, and splits dot paths such as
//     "meta.info.value" into one accessor per segment
//
//   - [Attr] extracts struct fields, niladic methods, or values provided by an
//     [AttrGetter]
//
//   - [Partial] and [PartialKw] bind leading arguments and defer the last one
//
//   - [Map] and [Filter] lazily transform or select the elements of their input,
//     returning a one-shot [Iterator]
//
// # Error Handling
//
// When an element of a pipeline fails, the call stops and returns a
// [FailureError] naming the element and the argument it was given. The
// original error remains reachable with [errors.Is] and [errors.As]. A panic
// inside an element is recovered and reported the same way, with a
// [RecoveredPanic] as the cause. Calling an Atom on its own returns the
// wrapped function's error unmodified.
//
// Construction errors have types of their own ([ArityError],
// [NotCallableError], [OperandError]) and match sentinels such as [ErrArity].
//
// # Tracing and Logging
//
// [Pipeline.CallTraced] records one [TraceEvent] per applied element. Events
// can be streamed as JSON Lines ([WithStreamTo]) or logged as they happen
// through log/slog ([WithSlogger]) or zerolog ([WithZerolog]). Each trace has
// an ID, generated or set with [WithTraceID], that every event carries.
// [WithTracer] reports the call and each element as OpenTelemetry spans.
// A finished trace can be filtered with [Trace.Filter] and written out as
// JSON or text.
//
// # Configuration-Driven Pipelines
//
// Functions registered in a [Registry] can be referred to by name, which
// lets pipelines be encoded as JSON or YAML [Descriptor] trees and rebuilt
// later:
//
//	compose.MustRegister("atoi", strconv.Atoi)
//	p, err := compose.DefaultRegistry.DecodeYAML(configBytes)
//
// # Batch Calls
//
// [CallAll] applies one Callable to many inputs concurrently, with an
// optional concurrency limit; [CallEach] does the same serially.
package compose
