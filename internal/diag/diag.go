// Package diag is the diagnostics sink for fatal query failures.
//
// The query engine does not print anything itself: when a cycle or an
// unsupported query aborts evaluation it hands a structured Report to
// whatever Sink the driver installed. The CLI installs a slog-backed
// sink; tests install a RecordingSink and assert on the reports.
package diag

import (
	"fmt"
	"log/slog"
	"strings"
)

// Report is one fatal query failure, already reduced to strings so the
// sink has no dependency on engine types.
type Report struct {
	// Code is the failure category (CYCLE_DETECTED, UNSUPPORTED_QUERY, ...).
	Code string `json:"code"`

	// Kind is the query kind name, e.g. "type_of".
	Kind string `json:"kind"`

	// Key is the canonical key rendering, e.g. "0:3".
	Key string `json:"key"`

	// Message is the human-readable summary.
	Message string `json:"message"`

	// Chain is the ordered frame chain for cycles, from the re-entered
	// frame to the top of the stack. Empty for non-cycle failures.
	Chain []string `json:"chain,omitempty"`
}

// Sink receives fatal failure reports.
type Sink interface {
	Report(r Report)
}

// Render formats a report for human consumption.
//
// Cycles include the full ordered chain so the offending recursive
// dependency is visible:
//
//	error[CYCLE_DETECTED]: cyclic dependency computing type_of(0:1)
//	cycle chain:
//	  1. type_of(0:1)
//	  2. generics_of(0:1)
//	note: the last frame requests the first again
func Render(r Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "error[%s]: %s\n", r.Code, r.Message)
	if len(r.Chain) > 0 {
		b.WriteString("cycle chain:\n")
		for i, frame := range r.Chain {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, frame)
		}
		b.WriteString("note: the last frame requests the first again\n")
	}
	return b.String()
}

// SlogSink logs reports through a structured logger.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink over the given logger; nil means the
// default logger.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// Report implements Sink.
func (s *SlogSink) Report(r Report) {
	attrs := []any{
		"code", r.Code,
		"query", r.Kind,
		"key", r.Key,
	}
	if len(r.Chain) > 0 {
		attrs = append(attrs, "chain", strings.Join(r.Chain, " -> "))
	}
	s.logger.Error(r.Message, attrs...)
}

// RecordingSink collects reports in order. Used by tests and by the
// conformance harness to assert on exactly what was reported.
type RecordingSink struct {
	Reports []Report
}

// Report implements Sink.
func (s *RecordingSink) Report(r Report) {
	s.Reports = append(s.Reports, r)
}

// NopSink discards all reports. The engine's default when the driver
// installs nothing.
type NopSink struct{}

// Report implements Sink.
func (NopSink) Report(Report) {}
