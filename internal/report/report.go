// Package report is the single error taxonomy of the description driver.
// Every parsing, validation and build failure is reported through one
// primitive and rendered the same way: an "Error E<NN>" header, the message,
// the file:line:column of the offending element, the source line verbatim and
// a caret run underneath it.
package report

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/hashicorp/hcl/v2"
)

// Error is the one failure value the driver surfaces. It satisfies the error
// interface and carries everything needed to render the diagnostic again.
type Error struct {
	Code    Code
	Message string
	Subject hcl.Range

	// SourceLine is the offending line quoted from the original text, empty
	// when the error is not anchored to source.
	SourceLine string

	// ShortUnderline restricts the caret run to a single column instead of
	// the subject's full width.
	ShortUnderline bool
}

func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Error E%02d: %s", int(e.Code), e.Message)
	if e.Subject.Filename != "" || e.Subject.Start.Line > 0 {
		fmt.Fprintf(&sb, "\nAt %s:%d:%d:", e.Subject.Filename, e.Subject.Start.Line, e.Subject.Start.Column)
	}
	if e.SourceLine != "" {
		sb.WriteString("\n")
		sb.WriteString(e.SourceLine)
		sb.WriteString("\n")
		sb.WriteString(caretRun(e.Subject, e.SourceLine, e.ShortUnderline))
	}
	return sb.String()
}

// Diagnostic converts the error into an hcl diagnostic so callers can feed it
// to an hcl.DiagnosticWriter alongside diagnostics from other tools.
func (e *Error) Diagnostic() *hcl.Diagnostic {
	subject := e.Subject
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  fmt.Sprintf("E%02d %s", int(e.Code), e.Code),
		Detail:   e.Message,
		Subject:  &subject,
	}
}

func caretRun(subject hcl.Range, line string, short bool) string {
	col := subject.Start.Column
	if col < 1 {
		col = 1
	}
	width := 1
	if !short && subject.End.Line == subject.Start.Line && subject.End.Column > subject.Start.Column {
		width = subject.End.Column - subject.Start.Column
	}
	if max := len(line) - (col - 1); width > max && max > 0 {
		width = max
	}
	var sb strings.Builder
	for _, r := range line[:min(col-1, len(line))] {
		// Tabs keep their width so the carets line up.
		if r == '\t' {
			sb.WriteByte('\t')
		} else {
			sb.WriteByte(' ')
		}
	}
	sb.WriteString(strings.Repeat("^", width))
	return sb.String()
}

// New builds an Error anchored to the given range, quoting the offending line
// out of source. source may be empty when no text is available.
func New(code Code, subject hcl.Range, source string, short bool, format string, args ...any) *Error {
	return &Error{
		Code:           code,
		Message:        fmt.Sprintf(format, args...),
		Subject:        subject,
		SourceLine:     LineAt(source, subject.Start.Line),
		ShortUnderline: short,
	}
}

// Internal reports a violated driver invariant, embedding the calling site.
func Internal(format string, args ...any) *Error {
	site := "unknown"
	if _, file, line, ok := runtime.Caller(1); ok {
		if idx := strings.LastIndexByte(file, '/'); idx >= 0 {
			file = file[idx+1:]
		}
		site = fmt.Sprintf("%s:%d", file, line)
	}
	return &Error{
		Code:    InternalError,
		Message: fmt.Sprintf("internal error at %s: %s", site, fmt.Sprintf(format, args...)),
	}
}

// LineAt returns the 1-based line of text, without its terminator.
func LineAt(source string, line int) string {
	if line < 1 || source == "" {
		return ""
	}
	for i := 1; ; i++ {
		end := strings.IndexByte(source, '\n')
		var cur string
		if end < 0 {
			cur = source
		} else {
			cur = source[:end]
		}
		if i == line {
			return strings.TrimSuffix(cur, "\r")
		}
		if end < 0 {
			return ""
		}
		source = source[end+1:]
	}
}
