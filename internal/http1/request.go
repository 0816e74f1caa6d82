package http1

// AppendRequest appends the wire form of a request to dst:
//
//	METHOD target HTTP/1.1\r\n
//	Name: value\r\n ...
//	\r\n
//	body
//
// Adjacent fields with the same name are folded onto one line joined by
// ';'. Names are written in canonical form. body is written verbatim when
// hasBody is set; no chunking or compression is applied.
func AppendRequest(dst []byte, method, target string, fields []Field, body []byte, hasBody bool) []byte {
	dst = append(dst, method...)
	dst = append(dst, ' ')
	dst = append(dst, target...)
	dst = append(dst, " HTTP/1.1"...)
	last := ""
	for _, f := range fields {
		name := CanonicalHeaderKey(f.Name)
		if name == last {
			dst = append(dst, ';')
			dst = append(dst, SanitizeFieldValue(f.Value)...)
			continue
		}
		last = name
		dst = append(dst, "\r\n"...)
		dst = append(dst, name...)
		dst = append(dst, ": "...)
		dst = append(dst, SanitizeFieldValue(f.Value)...)
	}
	dst = append(dst, "\r\n\r\n"...)
	if hasBody {
		dst = append(dst, body...)
	}
	return dst
}
