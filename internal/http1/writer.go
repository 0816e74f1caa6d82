package http1

import (
	"bufio"
	"fmt"
	"strconv"
)

// WriteResponse writes a complete HTTP/1.1 response with a Content-Length
// body. Fields are written in order; any Content-Length or Connection
// field in fields is replaced by the computed one.
func WriteResponse(bw *bufio.Writer, status int, reason string, fields []Field, body []byte, keepAlive bool) error {
	if reason == "" {
		reason = defaultReason(status)
	}
	if _, err := fmt.Fprintf(bw, "HTTP/1.1 %d %s\r\n", status, reason); err != nil {
		return err
	}
	for _, f := range fields {
		name := CanonicalHeaderKey(f.Name)
		if name == "Content-Length" || name == "Connection" {
			continue
		}
		if _, err := fmt.Fprintf(bw, "%s: %s\r\n", name, SanitizeFieldValue(f.Value)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(bw, "Content-Length: %s\r\n", strconv.Itoa(len(body))); err != nil {
		return err
	}
	conn := "close"
	if keepAlive {
		conn = "keep-alive"
	}
	if _, err := fmt.Fprintf(bw, "Connection: %s\r\n\r\n", conn); err != nil {
		return err
	}
	if len(body) > 0 {
		if _, err := bw.Write(body); err != nil {
			return err
		}
	}
	return nil
}

func defaultReason(code int) string {
	switch code {
	case 100:
		return "Continue"
	case 200:
		return "OK"
	case 201:
		return "Created"
	case 204:
		return "No Content"
	case 301:
		return "Moved Permanently"
	case 302:
		return "Found"
	case 303:
		return "See Other"
	case 304:
		return "Not Modified"
	case 307:
		return "Temporary Redirect"
	case 308:
		return "Permanent Redirect"
	case 400:
		return "Bad Request"
	case 401:
		return "Unauthorized"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 413:
		return "Content Too Large"
	case 431:
		return "Request Header Fields Too Large"
	case 500:
		return "Internal Server Error"
	case 501:
		return "Not Implemented"
	default:
		return ""
	}
}

// StatusText returns the reason phrase used for code, or "".
func StatusText(code int) string {
	return defaultReason(code)
}
