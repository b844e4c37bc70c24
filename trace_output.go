// SPDX-License-Identifier: Apache-2.0

package compose

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// traceDocument is the JSON form written by [Trace.WriteTo].
type traceDocument struct {
	ID          string        `json:"id"`
	Start       time.Time     `json:"start"`
	Duration    time.Duration `json:"duration"`
	TotalSteps  int           `json:"total_steps"`
	TotalErrors int           `json:"total_errors"`
	Events      []TraceEvent  `json:"events"`
}

// WriteTo serializes the trace as a pretty-printed JSON object holding the
// trace's ID, timing, totals and an "events" array, followed by a newline.
//
// Returns the number of bytes written and any error.
//
// This is different from streaming (via WithStreamTo) which outputs JSON Lines
// format (one event per line) during execution.
func (t *Trace) WriteTo(w io.Writer) (int64, error) {
	doc := traceDocument{
		ID:          t.ID,
		Start:       t.Start,
		Duration:    t.Duration,
		TotalSteps:  t.TotalSteps,
		TotalErrors: t.TotalErrors,
		Events:      t.Events,
	}
	if doc.Events == nil {
		doc.Events = []TraceEvent{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to marshal trace: %w", err)
	}
	data = append(data, '\n')

	n, err := w.Write(data)
	if err != nil {
		return int64(n), fmt.Errorf("failed to write trace: %w", err)
	}
	return int64(n), nil
}

// WriteText outputs a human-readable list of the trace's events.
//
// Each line shows the element's position, display name, input and duration.
// Events appear in execution order, which is the reverse of the pipeline's
// element order.
//
// Example output:
//
//	[2] str <- 763 (1.2µs)
//	[1] map(Atoi) <- "763" (800ns)
//	[0] sum <- <iterator> (3µs) [ERROR: element 1: invalid syntax]
func (t *Trace) WriteText(w io.Writer) (int64, error) {
	var totalBytes int64
	for _, event := range t.Events {
		line := fmt.Sprintf("[%d] %s <- %s (%s)", event.Step, event.Name, event.Input, event.Duration)
		if event.Error != "" {
			line += fmt.Sprintf(" [ERROR: %s]", event.Error)
		}
		line += "\n"

		n, err := w.Write([]byte(line))
		totalBytes += int64(n)
		if err != nil {
			return totalBytes, fmt.Errorf("failed to write text: %w", err)
		}
	}

	return totalBytes, nil
}
