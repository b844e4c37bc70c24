// SPDX-License-Identifier: Apache-2.0

package compose_test

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/sam-fredrickson/compose"
)

func chain(n int) *compose.Pipeline {
	elems := make([]any, n)
	for i := range elems {
		elems[i] = compose.MustAtom(increment, compose.WithName(fmt.Sprintf("step%04d", i)))
	}
	return compose.MustPipeline(elems...)
}

// =============================================================================
// Tracing Benchmarks
// =============================================================================

// BenchmarkTracingOverheadComparison compares Call with CallTraced.
func BenchmarkTracingOverheadComparison(b *testing.B) {
	p := chain(10)

	b.Run("untraced", func(b *testing.B) {
		for b.Loop() {
			out, err := p.Call(0)
			if err != nil {
				b.Fatal(err)
			}
			benchmarkResult = out
		}
	})

	b.Run("traced", func(b *testing.B) {
		for b.Loop() {
			out, _, err := p.CallTraced(0)
			if err != nil {
				b.Fatal(err)
			}
			benchmarkResult = out
		}
	})

	b.Run("traced_with_logger", func(b *testing.B) {
		logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
		for b.Loop() {
			out, _, err := p.CallTraced(0, compose.WithSlogger(logger, slog.LevelInfo))
			if err != nil {
				b.Fatal(err)
			}
			benchmarkResult = out
		}
	})
}

// BenchmarkStreamingOverhead measures the overhead of streaming events.
func BenchmarkStreamingOverhead(b *testing.B) {
	for _, count := range []int{10, 50, 100} {
		p := chain(count)
		countName := fmt.Sprintf("events_%03d", count)

		b.Run(countName+"/no_streaming", func(b *testing.B) {
			for b.Loop() {
				if _, _, err := p.CallTraced(0); err != nil {
					b.Fatal(err)
				}
			}
		})

		b.Run(countName+"/with_streaming", func(b *testing.B) {
			for b.Loop() {
				if _, _, err := p.CallTraced(0, compose.WithStreamTo(io.Discard)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// Benchmark filter operations on large traces.
func BenchmarkTraceFilter(b *testing.B) {
	for _, eventCount := range []int{100, 500, 1000} {
		b.Run(fmt.Sprintf("events_%04d", eventCount), func(b *testing.B) {
			_, trace, err := chain(eventCount).CallTraced(0)
			if err != nil {
				b.Fatal(err)
			}

			b.Run("single_filter", func(b *testing.B) {
				for b.Loop() {
					_ = trace.Filter(compose.NoError())
				}
			})

			b.Run("multiple_filters", func(b *testing.B) {
				for b.Loop() {
					_ = trace.Filter(
						compose.StepRange(10, 90),
						compose.NoError(),
						compose.MinDuration(0),
					)
				}
			})

			b.Run("pattern_match", func(b *testing.B) {
				for b.Loop() {
					_ = trace.Filter(compose.NameMatches("step00*"))
				}
			})
		})
	}
}

// Benchmark trace output operations.
func BenchmarkTraceOutput(b *testing.B) {
	_, trace, err := chain(20).CallTraced(0)
	if err != nil {
		b.Fatal(err)
	}

	b.Run("WriteTo_JSON", func(b *testing.B) {
		for b.Loop() {
			var buf bytes.Buffer
			if _, err := trace.WriteTo(&buf); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("WriteText", func(b *testing.B) {
		for b.Loop() {
			var buf bytes.Buffer
			if _, err := trace.WriteText(&buf); err != nil {
				b.Fatal(err)
			}
		}
	})
}

// BenchmarkTraceConcurrentAccess traces a shared pipeline from many goroutines.
func BenchmarkTraceConcurrentAccess(b *testing.B) {
	p := chain(10)
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, _, err := p.CallTraced(0); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
