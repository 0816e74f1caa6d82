package fetch

import "errors"

// Raised synchronously while building headers, requests and responses.
var (
	ErrInvalidHeaderName     = errors.New("fetch: invalid character in header field name")
	ErrInvalidHeaderValue    = errors.New("fetch: invalid header field value")
	ErrBadURL                = errors.New("fetch: bad URL")
	ErrInvalidBody           = errors.New("fetch: body not allowed for GET or HEAD requests")
	ErrAlreadyRead           = errors.New("fetch: body already read")
	ErrUnsupportedBodyType   = errors.New("fetch: unsupported body type")
	ErrInvalidRedirectStatus = errors.New("fetch: invalid redirect status code")
)

// Delivered through Future rejection.
var (
	ErrBadHTTPResponse      = errors.New("fetch: bad HTTP response")
	ErrHTTPRequestFailed    = errors.New("fetch: HTTP request failed")
	ErrSSLHandshakeFailed   = errors.New("fetch: SSL handshake failed")
	ErrNetworkConnectFailed = errors.New("fetch: network request failed")
	ErrQueueFull            = errors.New("fetch: deferred queue full")
	ErrTimeout              = errors.New("fetch: timed out waiting for a connection")
)
