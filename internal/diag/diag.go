// Package diag renders compiler diagnostics: coloured, span-annotated
// reports against the file table, plus the Bag an analyser run
// accumulates errors/warnings into.
package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/plos-clan/cara/internal/source"
)

// ErrorKind enumerates the analyser's non-exhaustive error kinds.
type ErrorKind int

const (
	InvalidTypeCast ErrorKind = iota
	WrongDeref
	WrongCall
	TypeMismatch
	UnsupportedOperator
	Unknown
	InvalidField
	ExpectedStructType
	BreakOutsideLoop
	ContinueOutsideLoop
	Custom
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidTypeCast:
		return "invalid type cast"
	case WrongDeref:
		return "wrong deref"
	case WrongCall:
		return "wrong call"
	case TypeMismatch:
		return "type mismatch"
	case UnsupportedOperator:
		return "unsupported operator"
	case Unknown:
		return "unknown name"
	case InvalidField:
		return "invalid field"
	case ExpectedStructType:
		return "expected struct type"
	case BreakOutsideLoop:
		return "break outside loop"
	case ContinueOutsideLoop:
		return "continue outside loop"
	case Custom:
		return "error"
	default:
		return "error"
	}
}

// WarnKind enumerates the analyser's warning kinds, including the
// supplemented lint-pass warnings.
type WarnKind int

const (
	UnusedLet WarnKind = iota
	UnreachableCode
	WarnCustom
)

func (k WarnKind) String() string {
	switch k {
	case UnusedLet:
		return "unused binding"
	case UnreachableCode:
		return "unreachable code"
	default:
		return "warning"
	}
}

// Diagnostic is one rendered error or warning, carrying the span it applies
// to and a human-readable message.
type Diagnostic struct {
	Span     source.Span
	IsError  bool
	ErrKind  ErrorKind
	WarnKind WarnKind
	Message  string
}

// Errorf builds an error-level Diagnostic for kind at span.
func Errorf(span source.Span, kind ErrorKind, format string, args ...any) Diagnostic {
	return Diagnostic{Span: span, IsError: true, ErrKind: kind, Message: fmt.Sprintf(format, args...)}
}

// Warnf builds a warning-level Diagnostic for kind at span.
func Warnf(span source.Span, kind WarnKind, format string, args ...any) Diagnostic {
	return Diagnostic{Span: span, IsError: false, WarnKind: kind, Message: fmt.Sprintf(format, args...)}
}

// Bag accumulates diagnostics across one analyser run, mirroring
// AnalyzeResult.errors/.warnings.
type Bag struct {
	items []Diagnostic
}

// Add appends one or more diagnostics.
func (b *Bag) Add(d ...Diagnostic) { b.items = append(b.items, d...) }

// Merge appends another bag's diagnostics to b.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.items = append(b.items, other.items...)
}

// HasError reports whether any accumulated diagnostic is error-level; the
// driver checks this before invoking codegen.
func (b *Bag) HasError() bool {
	for _, d := range b.items {
		if d.IsError {
			return true
		}
	}
	return false
}

// All returns every accumulated diagnostic, in insertion order.
func (b *Bag) All() []Diagnostic {
	out := make([]Diagnostic, len(b.items))
	copy(out, b.items)
	return out
}

const (
	ansiRed    = "\x1b[31;1m"
	ansiYellow = "\x1b[33;1m"
	ansiBold   = "\x1b[1m"
	ansiReset  = "\x1b[0m"
)

// Render writes one diagnostic to w as: a coloured header naming the kind
// and message, the offending source line, and carets under the span.
func Render(w io.Writer, files *source.FileTable, d Diagnostic) {
	color, label := ansiYellow, "warning"
	if d.IsError {
		color, label = ansiRed, "error"
	}

	path := "<unknown>"
	lineNo := 0
	lineText := ""
	caretOffset := 0
	caretWidth := 1
	if d.Span.File != source.InvalidFileID {
		path = files.Path(d.Span.File)
		var lineStart int
		lineNo, lineText, lineStart = files.Line(d.Span.File, d.Span.Start)
		caretOffset = d.Span.Start - lineStart
		if caretOffset < 0 {
			caretOffset = 0
		}
		if w := d.Span.Len(); w > 0 {
			caretWidth = w
		}
		if caretOffset+caretWidth > len(lineText) {
			caretWidth = len(lineText) - caretOffset
			if caretWidth < 1 {
				caretWidth = 1
			}
		}
	}

	kind := any(d.ErrKind)
	if !d.IsError {
		kind = d.WarnKind
	}
	fmt.Fprintf(w, "%s%s%s: %s%s (%v)\n", color, label, ansiReset, d.Message, ansiReset, kind)
	fmt.Fprintf(w, "  %s--> %s:%d\n", ansiBold, path, lineNo)
	if lineText != "" || d.Span.File != source.InvalidFileID {
		fmt.Fprintf(w, "   |%s\n", ansiReset)
		fmt.Fprintf(w, "%3d| %s\n", lineNo, lineText)
		fmt.Fprintf(w, "   | %s%s%s%s\n", strings.Repeat(" ", caretOffset), color, strings.Repeat("^", caretWidth), ansiReset)
	}
}

// RenderAll renders every diagnostic in the bag, in insertion order.
func RenderAll(w io.Writer, files *source.FileTable, b *Bag) {
	for _, d := range b.All() {
		Render(w, files, d)
	}
}
