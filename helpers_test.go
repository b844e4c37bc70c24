// SPDX-License-Identifier: Apache-2.0

package compose

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strconv"
	"strings"
)

// ==== Test Helpers: Error Variables ====

var error1 = errors.New("error 1")
var error2 = errors.New("error 2")

// ==== Test Helpers: Functions ====

// sum adds up the integers produced by its input.
func sum(x any) (any, error) {
	vals, err := Collect(x)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, v := range vals {
		n, ok := v.(int)
		if !ok {
			return nil, fmt.Errorf("sum: %v is not an int", v)
		}
		total += n
	}
	return total, nil
}

func addOne(n int) int {
	return n + 1
}

func double(n int) int {
	return n * 2
}

func failWith(err error) Func {
	return func(any) (any, error) {
		return nil, err
	}
}

func panicWith(value any) Func {
	return func(any) (any, error) {
		panic(value)
	}
}

// sortedKw sorts a sequence of ints, honoring a "reverse" keyword.
func sortedKw(args []any, kwargs Kwargs) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("sorted expected 1 argument, got %d", len(args))
	}
	vals, err := Collect(args[0])
	if err != nil {
		return nil, err
	}
	ints := make([]int, len(vals))
	for i, v := range vals {
		ints[i] = v.(int)
	}
	slices.Sort(ints)
	if reverse, _ := kwargs["reverse"].(bool); reverse {
		slices.Reverse(ints)
	}
	out := make([]any, len(ints))
	for i, n := range ints {
		out[i] = n
	}
	return out, nil
}

func str(x any) string {
	return fmt.Sprint(x)
}

var (
	toInt = MustAtom(strconv.Atoi)
	toStr = MustAtom(str)
	upper = MustAtom(strings.ToUpper)
)

// countTo yields 0..n-1 and records how many values were pulled.
func countTo(n int, pulled *int) iter.Seq[any] {
	return func(yield func(any) bool) {
		for i := range n {
			*pulled++
			if !yield(i) {
				return
			}
		}
	}
}

// ==== Test Helpers: Values ====

type point struct {
	X, Y int
	name string
}

func (p point) Norm1() int {
	return abs(p.X) + abs(p.Y)
}

func (p *point) Scale(k int) {
	p.X *= k
	p.Y *= k
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

type record struct {
	Point *point
}

// customGetter serves items and attributes from one map.
type customGetter map[string]any

func (g customGetter) GetItem(key any) (any, error) {
	s, ok := key.(string)
	if !ok {
		return nil, ErrKeyNotFound
	}
	v, ok := g[s]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return v, nil
}

func (g customGetter) GetAttr(name string) (any, error) {
	return g.GetItem(name)
}

// set is a small set type that reports its truth value like a container.
type set map[int]struct{}

func (s set) Truth() bool {
	return len(s) > 0
}

// ==== Test Helpers: Error Validators ====

// isNil validates that the error is nil.
func isNil(testErr error) error {
	if testErr != nil {
		return fmt.Errorf("unexpected error: %w", testErr)
	}
	return nil
}

// isNotNil validates that the error is not nil.
func isNotNil(testErr error) error {
	if testErr == nil {
		return fmt.Errorf("expected error but got nil")
	}
	return nil
}

// all returns a validator that passes only if all the given validators pass.
func all(validators ...func(error) error) func(error) error {
	return func(testErr error) error {
		for _, validator := range validators {
			if err := validator(testErr); err != nil {
				return err
			}
		}
		return nil
	}
}

// matches returns a validator that checks if the error matches the target error using errors.Is.
func matches(targetErr error) func(error) error {
	return func(testError error) error {
		if !errors.Is(testError, targetErr) {
			return fmt.Errorf("expected error %v to match error %v", testError, targetErr)
		}
		return nil
	}
}

// notMatches returns a validator that checks if the error does not match the target error.
func notMatches(targetErr error) func(error) error {
	return func(testError error) error {
		if errors.Is(testError, targetErr) {
			return fmt.Errorf("expected error %v to not match error %v", testError, targetErr)
		}
		return nil
	}
}

// isRecoveredPanic validates that the error is a RecoveredPanic.
func isRecoveredPanic(testErr error) error {
	var recoveredPanic *RecoveredPanic
	if !errors.As(testErr, &recoveredPanic) {
		return fmt.Errorf("expected RecoveredPanic error, got %v", testErr)
	}
	return nil
}

// isFailure returns a validator that checks the error is a FailureError for
// the named element and argument.
func isFailure(element string, arg any) func(error) error {
	return func(testErr error) error {
		var fe *FailureError
		if !errors.As(testErr, &fe) {
			return fmt.Errorf("expected FailureError, got %v", testErr)
		}
		if fe.Element.Name() != element {
			return fmt.Errorf("expected failing element %q, got %q", element, fe.Element.Name())
		}
		if fmt.Sprint(fe.Arg) != fmt.Sprint(arg) {
			return fmt.Errorf("expected failing argument %v, got %v", arg, fe.Arg)
		}
		return nil
	}
}

// isNotFailure validates that the error is not wrapped in a FailureError.
func isNotFailure(testErr error) error {
	var fe *FailureError
	if errors.As(testErr, &fe) {
		return fmt.Errorf("expected unwrapped error, got %v", testErr)
	}
	return nil
}

// contains returns a validator that checks if the error message contains the given substring.
func contains(substring string) func(error) error {
	return func(testErr error) error {
		if testErr == nil || !strings.Contains(testErr.Error(), substring) {
			return fmt.Errorf("expected error to contain %q, got %v", substring, testErr)
		}
		return nil
	}
}
