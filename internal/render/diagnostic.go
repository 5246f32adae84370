package render

import (
	"fmt"
	"strings"
)

// CompileError renders a compile_error! invocation carrying msg, which is
// what a failed expansion leaves in place of the impl.
func CompileError(msg string) string {
	return "compile_error!(" + RustString(msg) + ");\n"
}

// RustString renders s as a Rust string literal.
func RustString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case 0:
			b.WriteString(`\0`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u{%x}`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
