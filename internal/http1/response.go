package http1

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
)

var (
	ErrMalformedResponse = errors.New("http1: malformed response")
	ErrStatusOutOfRange  = errors.New("http1: status code out of range")
)

// ParsedResponse is a response split into its parts.
type ParsedResponse struct {
	Proto      string
	StatusCode int
	Reason     string
	Fields     []Field
	Body       []byte
}

var headerEnd = []byte("\r\n\r\n")

// ParseResponse parses a complete response message held in raw.
//
// The head ends at the first blank line. Everything after it is the body;
// Content-Length is not consulted, the caller is expected to hand over the
// whole message at once.
func ParseResponse(raw []byte) (*ParsedResponse, error) {
	i := bytes.Index(raw, headerEnd)
	if i < 0 {
		return nil, ErrMalformedResponse
	}
	lines := strings.Split(string(raw[:i]), "\r\n")
	proto, code, reason, err := parseStatusLine(lines[0])
	if err != nil {
		return nil, err
	}
	fields := make([]Field, 0, len(lines)-1)
	for _, line := range lines[1:] {
		j := strings.IndexByte(line, ':')
		if j <= 0 {
			return nil, ErrMalformedResponse
		}
		k := strings.TrimSpace(line[:j])
		if !ValidFieldName(k) {
			return nil, ErrMalformedResponse
		}
		fields = append(fields, Field{Name: k, Value: strings.TrimSpace(line[j+1:])})
	}
	body := raw[i+len(headerEnd):]
	return &ParsedResponse{
		Proto:      proto,
		StatusCode: code,
		Reason:     reason,
		Fields:     fields,
		Body:       append([]byte(nil), body...),
	}, nil
}

func parseStatusLine(line string) (proto string, code int, reason string, err error) {
	if len(line) < len("HTTP/1.x 0") || !strings.HasPrefix(line, "HTTP/1.") {
		return "", 0, "", ErrMalformedResponse
	}
	if minor := line[7]; minor != '0' && minor != '1' {
		return "", 0, "", ErrMalformedResponse
	}
	proto = line[:8]
	if line[8] != ' ' {
		return "", 0, "", ErrMalformedResponse
	}
	rest := line[9:]
	n := 0
	for n < len(rest) && rest[n] >= '0' && rest[n] <= '9' {
		n++
	}
	if n == 0 {
		return "", 0, "", ErrMalformedResponse
	}
	if n < len(rest) {
		if c := rest[n]; c != ' ' && c != '\t' {
			return "", 0, "", ErrMalformedResponse
		}
		reason = rest[n+1:]
	}
	code, err = strconv.Atoi(rest[:n])
	if err != nil || code < 100 || code > 599 {
		return "", 0, "", ErrStatusOutOfRange
	}
	return proto, code, reason, nil
}
