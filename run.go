// SPDX-License-Identifier: Apache-2.0

package compose

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ParallelOptions specifies how [CallAll] runs calls concurrently.
type ParallelOptions struct {
	// Limit controls how many goroutines may run.
	//
	// Numbers less than or equal to zero indicate no limit.
	Limit int

	// JoinErrors controls error handling.
	//
	// By default, when false, the first failing call cancels the calls that
	// have not started yet, and this first error is returned. (This is the
	// behavior of the `errgroup` package.)
	//
	// If enabled, every input is processed regardless of errors, and a
	// combined `errors.Join` error of all failures, in input order, is
	// returned.
	JoinErrors bool
}

// CallAll calls c once per input concurrently and returns the results in
// input order.
//
// Atoms and Pipelines are immutable, so a single Callable can be shared by
// all goroutines. Each failure is reported as an [IndexedError] holding the
// position of the input; a panic becomes a [RecoveredPanic].
//
// Example:
//
//	results, err := compose.CallAll(ctx, p, inputs, compose.ParallelOptions{Limit: 8})
func CallAll(ctx context.Context, c Callable, inputs []any, opts ParallelOptions) ([]any, error) {
	results := make([]any, len(inputs))

	group, subCtx := errgroup.WithContext(ctx)
	if opts.Limit > 0 {
		group.SetLimit(opts.Limit)
	}

	var mu sync.Mutex
	var failures []*IndexedError

	for i, in := range inputs {
		group.Go(func() error {
			if err := subCtx.Err(); err != nil {
				return err
			}
			out, err := callRecovering(c, in)
			if err != nil {
				ie := &IndexedError{Index: i, Err: err}
				if !opts.JoinErrors {
					return ie
				}
				mu.Lock()
				failures = append(failures, ie)
				mu.Unlock()
				return nil
			}
			results[i] = out
			return nil
		})
	}

	err := group.Wait()
	if opts.JoinErrors {
		slices.SortFunc(failures, func(a, b *IndexedError) int {
			return cmp.Compare(a.Index, b.Index)
		})
		errs := make([]error, 0, len(failures)+1)
		for _, f := range failures {
			errs = append(errs, f)
		}
		if err != nil {
			errs = append(errs, err)
		}
		err = errors.Join(errs...)
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}

// CallEach calls c once per input, one at a time, and returns the results in
// input order.
//
// The first failure stops the loop and is returned as an [IndexedError].
func CallEach(c Callable, inputs []any) ([]any, error) {
	results := make([]any, len(inputs))
	for i, in := range inputs {
		out, err := c.Call(in)
		if err != nil {
			return nil, &IndexedError{Index: i, Err: err}
		}
		results[i] = out
	}
	return results, nil
}

func callRecovering(c Callable, x any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &RecoveredPanic{Value: r}
		}
	}()
	return c.Call(x)
}
