package http1

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
)

var (
	ErrMalformedRequest = errors.New("http1: malformed request")
	ErrHeaderTooLarge   = errors.New("http1: header too large")
	ErrBodyTooLarge     = errors.New("http1: body too large")
)

// ParsedRequest is a request read off the wire with its body buffered.
type ParsedRequest struct {
	Method        string
	RequestURI    string
	Proto         string
	Fields        []Field
	ContentLength int64
	Body          []byte
}

// Reader reads requests for the echo server.
type Reader struct {
	BR *bufio.Reader
	// MaxHeaderBytes limits a single line, MaxTotalHeaderBytes the whole
	// head. Zero means no limit.
	MaxHeaderBytes      int
	MaxTotalHeaderBytes int
	MaxBodyBytes        int64
	// Continue, if set, is called before the body is read when the client
	// sent Expect: 100-continue.
	Continue func() error

	total int
}

// ReadRequest reads the next request head and its Content-Length or
// chunked body.
func (r *Reader) ReadRequest() (*ParsedRequest, error) {
	r.total = 0
	line, err := r.readLine()
	if err != nil {
		return nil, err
	}
	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return nil, ErrMalformedRequest
	}
	method, uri, proto := parts[0], parts[1], parts[2]
	if !strings.HasPrefix(proto, "HTTP/1.") || !ValidFieldName(method) {
		return nil, ErrMalformedRequest
	}
	fields, err := r.readFields()
	if err != nil {
		return nil, err
	}
	pr := &ParsedRequest{Method: method, RequestURI: uri, Proto: proto, Fields: fields}

	te, chunked := Lookup(fields, "Transfer-Encoding")
	chunked = chunked && strings.Contains(strings.ToLower(te), "chunked")
	cl, err := contentLength(fields)
	if err != nil {
		return nil, err
	}
	if chunked && cl >= 0 {
		return nil, ErrMalformedRequest
	}
	if v, ok := Lookup(fields, "Expect"); ok && strings.EqualFold(v, "100-continue") && r.Continue != nil && (chunked || cl > 0) {
		if err := r.Continue(); err != nil {
			return nil, err
		}
	}
	switch {
	case chunked:
		pr.ContentLength = -1
		pr.Body, err = readChunked(r.BR, r.MaxHeaderBytes, r.MaxBodyBytes)
		if err != nil {
			return nil, err
		}
	case cl > 0:
		if r.MaxBodyBytes > 0 && cl > r.MaxBodyBytes {
			return nil, ErrBodyTooLarge
		}
		pr.ContentLength = cl
		pr.Body = make([]byte, cl)
		if _, err := io.ReadFull(r.BR, pr.Body); err != nil {
			return nil, err
		}
	}
	return pr, nil
}

// contentLength returns -1 when the header is absent. Repeated values,
// whether in one line or several, must agree.
func contentLength(fields []Field) (int64, error) {
	n := int64(-1)
	for _, f := range fields {
		if !strings.EqualFold(f.Name, "Content-Length") {
			continue
		}
		for _, part := range strings.Split(f.Value, ",") {
			v, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil || v < 0 {
				return 0, ErrMalformedRequest
			}
			if n >= 0 && v != n {
				return 0, ErrMalformedRequest
			}
			n = v
		}
	}
	return n, nil
}

func (r *Reader) readFields() ([]Field, error) {
	var fields []Field
	for {
		line, err := r.readLine()
		if err != nil {
			return nil, err
		}
		if line == "" {
			return fields, nil
		}
		i := strings.IndexByte(line, ':')
		if i <= 0 {
			return nil, ErrMalformedRequest
		}
		k := strings.TrimSpace(line[:i])
		if !ValidFieldName(k) {
			return nil, ErrMalformedRequest
		}
		fields = append(fields, Field{Name: k, Value: strings.TrimSpace(line[i+1:])})
	}
}

func (r *Reader) readLine() (string, error) {
	line, err := readLineLimit(r.BR, r.MaxHeaderBytes)
	if err != nil {
		return "", err
	}
	r.total += len(line) + 2
	if r.MaxTotalHeaderBytes > 0 && r.total > r.MaxTotalHeaderBytes {
		return "", ErrHeaderTooLarge
	}
	return line, nil
}

func readLineLimit(br *bufio.Reader, limit int) (string, error) {
	var sb strings.Builder
	for {
		b, err := br.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '\n' {
			break
		}
		if b != '\r' {
			sb.WriteByte(b)
		}
		if limit > 0 && sb.Len() > limit {
			return "", ErrHeaderTooLarge
		}
	}
	return sb.String(), nil
}
