// Package diag models kernel compiler diagnostics and turns raw compiler
// transcripts into structured, line/column-addressed records.
package diag

import (
	"fmt"
	"strings"
)

// Kind distinguishes compile-time diagnostics from runtime failures.
type Kind uint8

const (
	// KindCompile is a diagnostic emitted while compiling kernel source.
	KindCompile Kind = iota

	// KindRuntime is a failure raised while evaluating a compiled kernel.
	KindRuntime
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindCompile:
		return "compile"
	case KindRuntime:
		return "runtime"
	default:
		return "unknown"
	}
}

// Severity is the diagnostic type printed by the compiler ("error",
// "warning", ...). Compilers are free to print other values; those are kept
// verbatim.
type Severity string

// Well-known severities.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNote    Severity = "note"
)

// Note is a secondary location attached to a compile diagnostic.
type Note struct {
	LineNumber     int
	CharacterIndex int
	Message        string
}

// KernelError is a single diagnostic. Compile diagnostics carry a source
// location; runtime diagnostics carry only a message.
type KernelError struct {
	Kind           Kind
	LineNumber     int
	CharacterIndex int
	Type           Severity
	Message        string
	Note           *Note
}

// Compile creates a compile diagnostic without a note.
func Compile(line, char int, typ Severity, message string) KernelError {
	return KernelError{
		Kind:           KindCompile,
		LineNumber:     line,
		CharacterIndex: char,
		Type:           typ,
		Message:        message,
	}
}

// Runtime creates a runtime diagnostic.
func Runtime(message string) KernelError {
	return KernelError{Kind: KindRuntime, Message: message}
}

// UnknownError returns the diagnostic reported when compilation failed but
// the toolchain produced nothing that could be parsed.
func UnknownError() KernelError {
	return Compile(-1, -1, SeverityError, "Unknown error. Please check your code.")
}

// IsRuntime reports whether e is a runtime diagnostic.
func (e KernelError) IsRuntime() bool { return e.Kind == KindRuntime }

// IsWarning reports whether e is a non-blocking compile diagnostic.
func (e KernelError) IsWarning() bool {
	return e.Kind == KindCompile && strings.EqualFold(string(e.Type), string(SeverityWarning))
}

// HasLocation reports whether e points at a source position.
func (e KernelError) HasLocation() bool {
	return e.Kind == KindCompile && e.LineNumber >= 0
}

// Equal reports structural equality. A missing note equals a zero note.
func (e KernelError) Equal(o KernelError) bool {
	if e.Kind != o.Kind {
		return false
	}
	if e.Kind == KindRuntime {
		return e.Message == o.Message
	}
	return e.LineNumber == o.LineNumber &&
		e.CharacterIndex == o.CharacterIndex &&
		e.Type == o.Type &&
		e.Message == o.Message &&
		e.noteOrZero() == o.noteOrZero()
}

func (e KernelError) noteOrZero() Note {
	if e.Note == nil {
		return Note{}
	}
	return *e.Note
}

// Error implements the error interface.
func (e KernelError) Error() string {
	if e.Kind == KindRuntime {
		return "runtime: " + e.Message
	}
	return fmt.Sprintf("%d:%d: %s: %s", e.LineNumber, e.CharacterIndex, e.Type, e.Message)
}

// EqualErrors reports whether two diagnostic lists are element-wise equal.
// Editors use it to skip re-rendering when a recompile yields the same list.
func EqualErrors(a, b []KernelError) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
