// Package diag defines source-span annotated diagnostics shared by the
// lexer, parser and planner.
package diag

import (
	"fmt"
	"strings"
)

// Level indicates the importance of a diagnostic.
type Level int

// Diagnostic levels, lowest first.
const (
	LevelNote Level = iota
	LevelWarning
	LevelError
	LevelFatal
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelNote:
		return "note"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string to a Level.
// Returns LevelError and false if the name is not recognised.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(s) {
	case "note":
		return LevelNote, true
	case "warning":
		return LevelWarning, true
	case "error":
		return LevelError, true
	case "fatal":
		return LevelFatal, true
	default:
		return LevelError, false
	}
}

// Span is a half-open byte range [Begin, End) into the source text.
type Span struct {
	Begin int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Begin }

// Join returns the smallest span covering both s and o.
func (s Span) Join(o Span) Span {
	return Span{Begin: min(s.Begin, o.Begin), End: max(s.End, o.End)}
}

// Diagnostic is a leveled message bound to a source span.
type Diagnostic struct {
	Level   Level
	Message string
	Span    Span
}

// Errorf creates an error-level diagnostic.
func Errorf(span Span, format string, args ...any) Diagnostic {
	return Diagnostic{Level: LevelError, Message: fmt.Sprintf(format, args...), Span: span}
}

// Warningf creates a warning-level diagnostic.
func Warningf(span Span, format string, args ...any) Diagnostic {
	return Diagnostic{Level: LevelWarning, Message: fmt.Sprintf(format, args...), Span: span}
}

// Notef creates a note-level diagnostic.
func Notef(span Span, format string, args ...any) Diagnostic {
	return Diagnostic{Level: LevelNote, Message: fmt.Sprintf(format, args...), Span: span}
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s at %d: %s", d.Level, d.Span.Begin, d.Message)
}

// List is an ordered collection of diagnostics.
type List []Diagnostic

// HasErrors reports whether any diagnostic is error level or above.
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.Level >= LevelError {
			return true
		}
	}
	return false
}

// Errors returns only the error and fatal diagnostics.
func (l List) Errors() List {
	var out List
	for _, d := range l {
		if d.Level >= LevelError {
			out = append(out, d)
		}
	}
	return out
}

// Warnings returns the diagnostics below error level.
func (l List) Warnings() List {
	var out List
	for _, d := range l {
		if d.Level < LevelError {
			out = append(out, d)
		}
	}
	return out
}

func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no diagnostics"
	case 1:
		return l[0].Error()
	}
	msgs := make([]string, len(l))
	for i, d := range l {
		msgs[i] = d.Error()
	}
	return strings.Join(msgs, "; ")
}

// Err returns the list as an error if it carries an error-level
// diagnostic, nil otherwise.
func (l List) Err() error {
	if l.HasErrors() {
		return l
	}
	return nil
}
