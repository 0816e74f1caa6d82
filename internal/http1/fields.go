package http1

import (
	"bufio"
	"fmt"
	"strings"
)

// Field is one header line. Order matters on the wire, so fields travel as
// slices rather than maps.
type Field struct {
	Name  string
	Value string
}

// ValidFieldName reports whether k is a non-empty run of
// [A-Za-z0-9-#$%&'*+.^_`|~].
func ValidFieldName(k string) bool {
	if k == "" {
		return false
	}
	for i := 0; i < len(k); i++ {
		c := k[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			continue
		}
		switch c {
		case '#', '$', '%', '&', '\'', '*', '+', '-', '.', '^', '_', '`', '|', '~':
			continue
		default:
			return false
		}
	}
	return true
}

// SanitizeFieldValue removes CR/LF and control chars except HTAB.
func SanitizeFieldValue(v string) string {
	if v == "" {
		return v
	}
	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == '\r' || c == '\n' || c == 0x7f {
			continue
		}
		if c < 0x20 && c != '\t' {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// CanonicalHeaderKey returns the wire form of a header name:
// "content-length" becomes "Content-Length".
func CanonicalHeaderKey(s string) string {
	b := []byte(strings.ToLower(s))
	upper := true
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			if upper {
				b[i] = c - 'a' + 'A'
			}
			upper = false
			continue
		}
		upper = c == '-'
	}
	return string(b)
}

// Lookup returns the first value of name in fields, compared
// case-insensitively.
func Lookup(fields []Field, name string) (string, bool) {
	for _, f := range fields {
		if strings.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}
	return "", false
}

// WriteContinue writes an interim 100 Continue response.
func WriteContinue(bw *bufio.Writer) error {
	_, err := fmt.Fprint(bw, "HTTP/1.1 100 Continue\r\n\r\n")
	return err
}
