// Package diag holds the diagnostics produced while parsing a document.
// Diagnostics carry a byte range and a severity; they are collected, never
// thrown, and the list is replaced wholesale on each re-parse.
package diag

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/ahkls/ahkls/token"
)

// Severity of a diagnostic, ordered from most to least severe.
type Severity uint8

// Severities
const (
	Error Severity = iota + 1
	Warning
	Information
	Hint
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Information:
		return "info"
	case Hint:
		return "hint"
	default:
		return "unknown"
	}
}

// Code identifies a diagnostic category for clients that filter or test on it.
type Code string

// Diagnostic codes
const (
	CodeSyntax             Code = "syntax"
	CodeUnterminatedString Code = "unterminated-string"
	CodeUnterminated       Code = "unterminated"
	CodeMissingCloser      Code = "missing-closer"
	CodeInvalidHotkey      Code = "invalid-hotkey"
	CodeParamOrder         Code = "param-order"
	CodeParamDuplicate     Code = "param-duplicate"
	CodeDeclConflict       Code = "decl-conflict"
	CodeNameCollision      Code = "name-collision"
	CodeArgCount           Code = "arg-count"
	CodeDialect            Code = "dialect"
	CodeDirective          Code = "directive"
)

// Diagnostic is one recorded problem with a precise document range.
type Diagnostic struct {
	Code     Code
	Severity Severity
	Range    token.Range
	Message  string
}

// Error implements the error interface.
func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s [%d:%d]", d.Severity, d.Message, d.Range.Start, d.Range.End)
}

// List accumulates diagnostics during a parse pass.
type List struct {
	items []Diagnostic
}

// Add appends a diagnostic.
func (l *List) Add(d Diagnostic) {
	l.items = append(l.items, d)
}

// Addf appends a diagnostic built from a format string.
func (l *List) Addf(code Code, sev Severity, r token.Range, format string, args ...any) {
	l.Add(Diagnostic{Code: code, Severity: sev, Range: r, Message: fmt.Sprintf(format, args...)})
}

// Errorf appends an error-severity diagnostic.
func (l *List) Errorf(code Code, r token.Range, format string, args ...any) {
	l.Addf(code, Error, r, format, args...)
}

// Warnf appends a warning-severity diagnostic.
func (l *List) Warnf(code Code, r token.Range, format string, args ...any) {
	l.Addf(code, Warning, r, format, args...)
}

// Items returns the recorded diagnostics in insertion order.
func (l *List) Items() []Diagnostic { return l.items }

// Len returns the number of recorded diagnostics.
func (l *List) Len() int { return len(l.items) }

// Truncate drops diagnostics past n. Used by speculative parses to roll a
// failed trial back to its snapshot.
func (l *List) Truncate(n int) {
	if n < len(l.items) {
		l.items = l.items[:n]
	}
}

// Extend appends all diagnostics from another list.
func (l *List) Extend(other *List) {
	l.items = append(l.items, other.items...)
}

// HasErrors reports whether any diagnostic has Error severity.
func (l *List) HasErrors() bool {
	for _, d := range l.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Err aggregates all error-severity diagnostics into a single error value,
// or nil when the list holds none.
func (l *List) Err() error {
	var result *multierror.Error
	for _, d := range l.items {
		if d.Severity == Error {
			result = multierror.Append(result, d)
		}
	}
	return result.ErrorOrNil()
}
