// SPDX-License-Identifier: Apache-2.0

package compose

import (
	"path/filepath"
	"time"
)

// TraceFilter is a predicate function for filtering trace events.
type TraceFilter func(TraceEvent) bool

// FindEvent returns the first event matching all provided filters, or nil if none match.
//
// Multiple filters are AND'd together.
//
// Example:
//
//	// Find the element that failed
//	event := trace.FindEvent(compose.HasError())
//	if event != nil {
//	    log.Printf("%s failed on %s: %s", event.Name, event.Input, event.Error)
//	}
func (t *Trace) FindEvent(filters ...TraceFilter) *TraceEvent {
	for i := range t.Events {
		event := &t.Events[i]
		if matchAll(*event, filters) {
			return event
		}
	}
	return nil
}

// Filter returns a new Trace containing only events matching all provided filters.
//
// Multiple filters are AND'd together. The original trace is not modified.
//
// The returned trace's TotalSteps equals the number of filtered events,
// and TotalErrors equals the number of filtered events with errors.
// The Duration field represents the sum of durations of all filtered events.
// The Start field is set to the earliest start time of the filtered events.
// If no events match, Start is set to the original trace's Start time.
//
// Example:
//
//	// Find slow accessors
//	filtered := trace.Filter(
//	    compose.NameMatches("item(*)"),
//	    compose.MinDuration(time.Millisecond),
//	)
func (t *Trace) Filter(filters ...TraceFilter) *Trace {
	filtered := make([]TraceEvent, 0, len(t.Events))
	errorCount := 0
	var totalDuration time.Duration
	var earliestStart time.Time

	for _, event := range t.Events {
		if !matchAll(event, filters) {
			continue
		}
		filtered = append(filtered, event)
		totalDuration += event.Duration
		if event.Error != "" {
			errorCount++
		}
		if earliestStart.IsZero() || event.Start.Before(earliestStart) {
			earliestStart = event.Start
		}
	}

	// If no events matched, use original trace start time
	startTime := t.Start
	if !earliestStart.IsZero() {
		startTime = earliestStart
	}

	return &Trace{
		ID:          t.ID,
		Events:      filtered,
		Start:       startTime,
		Duration:    totalDuration,
		TotalSteps:  len(filtered),
		TotalErrors: errorCount,
	}
}

func matchAll(event TraceEvent, filters []TraceFilter) bool {
	for _, filter := range filters {
		if !filter(event) {
			return false
		}
	}
	return true
}

// MinDuration returns a filter that matches events with duration >= d.
func MinDuration(d time.Duration) TraceFilter {
	return func(event TraceEvent) bool {
		return event.Duration >= d
	}
}

// MaxDuration returns a filter that matches events with duration <= d.
func MaxDuration(d time.Duration) TraceFilter {
	return func(event TraceEvent) bool {
		return event.Duration <= d
	}
}

// HasError returns a filter that matches events with errors.
func HasError() TraceFilter {
	return func(event TraceEvent) bool {
		return event.Error != ""
	}
}

// NoError returns a filter that matches events without errors.
func NoError() TraceFilter {
	return func(event TraceEvent) bool {
		return event.Error == ""
	}
}

// NameMatches returns a filter that matches events whose element name
// matches the glob pattern.
//
// Patterns use filepath.Match semantics. If the pattern is malformed, no
// events will match.
func NameMatches(pattern string) TraceFilter {
	return func(event TraceEvent) bool {
		matched, err := filepath.Match(pattern, event.Name)
		if err != nil {
			// Invalid pattern - fail closed (no matches)
			return false
		}
		return matched
	}
}

// StepRange returns a filter that matches events whose element position
// lies within [lo, hi].
func StepRange(lo, hi int) TraceFilter {
	return func(event TraceEvent) bool {
		return event.Step >= lo && event.Step <= hi
	}
}
