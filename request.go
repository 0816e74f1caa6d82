package fetch

import (
	"fmt"
	"strings"
	"time"
)

var knownMethods = map[string]bool{
	"DELETE": true, "GET": true, "HEAD": true, "OPTIONS": true, "POST": true, "PUT": true,
}

// normalizeMethod upper-cases well-known verbs and leaves anything else as
// written.
func normalizeMethod(m string) string {
	if u := strings.ToUpper(m); knownMethods[u] {
		return u
	}
	return m
}

// RequestInit carries the optional parts of a Request. Zero fields keep
// their defaults (or, for NewRequestFrom, the source's values).
type RequestInit struct {
	Method      string
	Header      *Header
	Body        interface{} // nil, string, []byte, io.Reader or *Blob
	Credentials string
	Mode        string
	Referrer    string

	// Priority orders waiting requests when the pool is at its limit.
	// Requests above BypassPriority never wait.
	Priority int
	// Timeout bounds how long the request may wait for a connection.
	// Zero waits indefinitely.
	Timeout time.Duration
}

// Request is an outgoing HTTP request.
type Request struct {
	bodyReader

	URL         string
	Method      string
	Header      *Header
	Credentials string
	Mode        string
	Referrer    string
	Priority    int
	Timeout     time.Duration
	// ID is assigned by the client when the request is issued.
	ID string

	target target
}

// NewRequest builds a request for url.
func NewRequest(url string, init *RequestInit) (*Request, error) {
	if init == nil {
		init = &RequestInit{}
	}
	t, err := parseURL(url)
	if err != nil {
		return nil, err
	}
	b, err := newBody(init.Body)
	if err != nil {
		return nil, err
	}
	r := &Request{
		URL:         url,
		Method:      "GET",
		Credentials: "omit",
		Referrer:    init.Referrer,
		Mode:        init.Mode,
		Priority:    init.Priority,
		Timeout:     init.Timeout,
		target:      t,
	}
	if init.Method != "" {
		r.Method = normalizeMethod(init.Method)
	}
	if init.Credentials != "" {
		r.Credentials = init.Credentials
	}
	if init.Header != nil {
		r.Header = init.Header.Clone()
	} else {
		r.Header = &Header{}
	}
	if err := r.setBody(b); err != nil {
		return nil, err
	}
	return r, nil
}

// NewRequestFrom builds a request from src, overriding whatever init sets.
// When init has no body, src's body moves to the new request and src is
// marked as read. It fails with ErrAlreadyRead if src's body was read.
func NewRequestFrom(src *Request, init *RequestInit) (*Request, error) {
	if src.BodyUsed() {
		return nil, ErrAlreadyRead
	}
	if init == nil {
		init = &RequestInit{}
	}
	r := &Request{
		URL:         src.URL,
		Method:      src.Method,
		Credentials: src.Credentials,
		Mode:        src.Mode,
		Referrer:    src.Referrer,
		Priority:    src.Priority,
		Timeout:     src.Timeout,
		target:      src.target,
	}
	if init.Method != "" {
		r.Method = normalizeMethod(init.Method)
	}
	if init.Credentials != "" {
		r.Credentials = init.Credentials
	}
	if init.Mode != "" {
		r.Mode = init.Mode
	}
	if init.Referrer != "" {
		r.Referrer = init.Referrer
	}
	if init.Priority != 0 {
		r.Priority = init.Priority
	}
	if init.Timeout != 0 {
		r.Timeout = init.Timeout
	}
	if init.Header != nil {
		r.Header = init.Header.Clone()
	} else {
		r.Header = src.Header.Clone()
	}

	var b *body
	if init.Body != nil {
		var err error
		if b, err = newBody(init.Body); err != nil {
			return nil, err
		}
	} else if src.b.present {
		b = src.b.share()
		if _, err := src.b.consume(); err != nil {
			return nil, err
		}
	} else {
		b = &body{}
	}
	if err := r.setBody(b); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Request) setBody(b *body) error {
	if (r.Method == "GET" || r.Method == "HEAD") && len(b.data) > 0 {
		return fmt.Errorf("%w (method %s)", ErrInvalidBody, r.Method)
	}
	if b.typ != "" && !r.Header.Has("content-type") {
		if err := r.Header.Set("content-type", b.typ); err != nil {
			return err
		}
	}
	r.bodyReader = bodyReader{b: b, mimeTyp: r.contentType}
	return nil
}

func (r *Request) contentType() string {
	v, _ := r.Header.Get("content-type")
	return v
}

// Clone copies r. The copy shares the body bytes but has its own read
// guard, and r is not marked as read.
func (r *Request) Clone() (*Request, error) {
	if r.BodyUsed() {
		return nil, ErrAlreadyRead
	}
	c := *r
	c.Header = r.Header.Clone()
	c.bodyReader = bodyReader{b: r.b.share(), mimeTyp: c.contentType}
	return &c, nil
}

// Protocol returns the URL scheme with its colon, e.g. "https:".
func (r *Request) Protocol() string { return r.target.Protocol }

// Host returns the URL host without port.
func (r *Request) Host() string { return r.target.Host }

// Port returns the URL port, or the scheme default.
func (r *Request) Port() int { return r.target.Port }

// Path returns the path and query.
func (r *Request) Path() string { return r.target.Path }
