package fetch

import (
	"fmt"

	"github.com/f0zi/fetch/internal/http1"
)

// ResponseInit carries the optional parts of a Response.
type ResponseInit struct {
	Status     int
	StatusText string
	Header     *Header
}

// Response is an HTTP response, received or built locally.
type Response struct {
	bodyReader

	Status     int
	StatusText string
	Header     *Header
	URL        string
	// Type is "default", or "error" for ErrorResponse.
	Type string
}

// NewResponse builds a response around body. Without a status it is
// 200 OK.
func NewResponse(body interface{}, init *ResponseInit) (*Response, error) {
	if init == nil {
		init = &ResponseInit{}
	}
	b, err := newBody(body)
	if err != nil {
		return nil, err
	}
	r := &Response{Status: init.Status, StatusText: init.StatusText, Type: "default"}
	if r.Status == 0 {
		r.Status = 200
		if r.StatusText == "" {
			r.StatusText = "OK"
		}
	}
	if init.Header != nil {
		r.Header = init.Header.Clone()
	} else {
		r.Header = &Header{}
	}
	if b.typ != "" && !r.Header.Has("content-type") {
		if err := r.Header.Set("content-type", b.typ); err != nil {
			return nil, err
		}
	}
	r.bodyReader = bodyReader{b: b, mimeTyp: r.contentType}
	return r, nil
}

// ErrorResponse returns a network-error response: status 0, type "error".
func ErrorResponse() *Response {
	r := &Response{Header: &Header{}, Type: "error"}
	r.bodyReader = bodyReader{b: &body{}, mimeTyp: r.contentType}
	return r
}

// Redirect returns a response pointing at url. status must be one of
// 301, 302, 303, 307 or 308.
func Redirect(url string, status int) (*Response, error) {
	switch status {
	case 301, 302, 303, 307, 308:
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidRedirectStatus, status)
	}
	h := &Header{}
	if err := h.Set("location", url); err != nil {
		return nil, err
	}
	return NewResponse(nil, &ResponseInit{Status: status, StatusText: http1.StatusText(status), Header: h})
}

// OK reports whether Status is in [200, 300).
func (r *Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

// Clone copies r with an independent header map and read guard.
func (r *Response) Clone() (*Response, error) {
	if r.BodyUsed() {
		return nil, ErrAlreadyRead
	}
	c := *r
	c.Header = r.Header.Clone()
	c.bodyReader = bodyReader{b: r.b.share(), mimeTyp: c.contentType}
	return &c, nil
}

func (r *Response) contentType() string {
	v, _ := r.Header.Get("content-type")
	return v
}

// responseFromWire converts a parsed message. Field values that fail
// validation are dropped rather than failing the whole response.
func responseFromWire(p *http1.ParsedResponse, url string) *Response {
	r := &Response{
		Status:     p.StatusCode,
		StatusText: p.Reason,
		Header:     &Header{},
		URL:        url,
		Type:       "default",
	}
	for _, f := range p.Fields {
		_ = r.Header.Append(f.Name, f.Value)
	}
	r.bodyReader = bodyReader{b: &body{data: p.Body, present: true}, mimeTyp: r.contentType}
	return r
}
