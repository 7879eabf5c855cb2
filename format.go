package crumbz

import (
	"bytes"
	"fmt"
	"io"
)

// verboseSeparator is used by %+v.
const verboseSeparator = "\n  while "

// Format implements fmt.Formatter.
//
//	%s, %v  description only
//	%q      quoted description
//	%+v     description, breadcrumbs, cause chain and trace if captured
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			e.formatVerbose(s)
			return
		}
		_, _ = io.WriteString(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	default:
		_, _ = io.WriteString(s, e.Error())
	}
}

func (e *Error) formatVerbose(w io.Writer) {
	var buf bytes.Buffer
	e.appendContext(&buf, verboseSeparator)
	if e == nil {
		_, _ = w.Write(buf.Bytes())
		return
	}

	if e.cause != nil && !e.causeInMsg {
		// Nested context-capturing causes render their own breadcrumbs.
		if _, ok := e.cause.(fmt.Formatter); ok {
			_, _ = fmt.Fprintf(&buf, "\ncause: %+v", e.cause)
		}
	}

	if len(e.trace) > 0 {
		buf.WriteString("\ntrace:")
		for _, fr := range e.trace {
			_, _ = fmt.Fprintf(&buf, "\n  %s %s:%d", fr.Function, fr.File, fr.Line)
		}
	}

	_, _ = w.Write(buf.Bytes())
}
