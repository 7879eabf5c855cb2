package crumbz

import (
	"fmt"
	"strconv"
	"strings"
)

// Text returns a breadcrumb for a fixed string.
func Text(s string) Breadcrumb {
	return func() string { return s }
}

// Textf returns a breadcrumb that formats with fmt.Sprintf when rendered.
// Arguments are captured by value now and formatted later.
func Textf(format string, args ...any) Breadcrumb {
	return func() string { return fmt.Sprintf(format, args...) }
}

// Template returns a breadcrumb that substitutes positional placeholders
// ({0}, {1}, ...) with the matching argument when rendered.
//
// Placeholders without a matching argument, or that are not a plain index,
// are kept literally. A doubled single quote renders as one quote.
func Template(tmpl string, args ...any) Breadcrumb {
	return func() string { return expandTemplate(tmpl, args) }
}

func expandTemplate(tmpl string, args []any) string {
	if !strings.ContainsAny(tmpl, "{'") {
		return tmpl
	}

	var b strings.Builder
	b.Grow(len(tmpl) + 8*len(args))

	for i := 0; i < len(tmpl); {
		c := tmpl[i]
		switch {
		case c == '\'' && i+1 < len(tmpl) && tmpl[i+1] == '\'':
			b.WriteByte('\'')
			i += 2
		case c == '{':
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				b.WriteString(tmpl[i:])
				return b.String()
			}
			inner := tmpl[i+1 : i+1+end]
			idx, err := strconv.Atoi(inner)
			if err != nil || idx < 0 || idx >= len(args) || inner[0] == '+' || inner[0] == '-' {
				b.WriteString(tmpl[i : i+end+2])
			} else {
				fmt.Fprint(&b, args[idx])
			}
			i += end + 2
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}
