package fetch

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/f0zi/fetch/host"
	"github.com/f0zi/fetch/internal/http1"
	"github.com/f0zi/fetch/internal/obs"
)

var errClosedEarly = errors.New("connection closed before response")

// exchange drives one request over one pooled socket. It is the Handler the
// pool binds to the socket.
type exchange struct {
	c     *Client
	req   *Request
	body  []byte
	fut   *Future
	start time.Time

	mu   sync.Mutex
	sock host.Socket
}

func (x *exchange) socket() host.Socket {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.sock
}

// acquired is the pool's completion callback.
func (x *exchange) acquired(s host.Socket, err error) {
	if err != nil {
		x.fail("acquire", err)
		return
	}
	x.mu.Lock()
	x.sock = s
	x.mu.Unlock()
	x.c.logf(obs.Debug, "%s %s: socket %d, opening %s:%d", x.req.Method, x.req.URL, s.Handle(), x.req.Host(), x.req.Port())
	s.EnableFraming(x.req.Method == "HEAD")
	s.Open(x.req.Host(), x.req.Port())
}

func (x *exchange) OnConnect() {
	if !x.req.target.secure() {
		x.send()
		return
	}
	if !x.socket().StartHandshake() {
		x.abort("handshake", fmt.Errorf("%w: could not start handshake", ErrSSLHandshakeFailed))
	}
}

func (x *exchange) OnHandshakeOK() { x.send() }

func (x *exchange) OnHandshakeFailed() { x.abort("handshake", ErrSSLHandshakeFailed) }

func (x *exchange) OnConnectFailed() { x.abort("connect", ErrNetworkConnectFailed) }

func (x *exchange) OnDisconnect() {
	x.abort("disconnect", fmt.Errorf("%w: %v", ErrNetworkConnectFailed, errClosedEarly))
}

func (x *exchange) OnData(data []byte) {
	x.c.pool.Release(x.socket())
	p, err := http1.ParseResponse(data)
	if err != nil {
		if errors.Is(err, http1.ErrStatusOutOfRange) {
			x.fail("parse", fmt.Errorf("%w: %v", ErrHTTPRequestFailed, err))
		} else {
			x.fail("parse", fmt.Errorf("%w: %v", ErrBadHTTPResponse, err))
		}
		return
	}
	resp := responseFromWire(p, x.req.URL)
	if x.fut.resolve(resp) {
		x.c.metricCounter("fetch_responses_total", 1, obs.Label{Key: "status", Value: strconv.Itoa(resp.Status)})
		x.c.metricHistogram("fetch_roundtrip_duration_ms", float64(time.Since(x.start).Milliseconds()))
		x.c.logf(obs.Debug, "%s %s: %d %s", x.req.Method, x.req.URL, resp.Status, resp.StatusText)
	}
}

// send serializes the request and writes it to the socket.
func (x *exchange) send() {
	h := x.req.Header.Clone()
	if !h.Has("host") {
		if err := h.Set("host", x.req.Host()); err != nil {
			x.abort("write", err)
			return
		}
	}
	if x.c.cfg.RequestIDHeader != "" && !h.Has(x.c.cfg.RequestIDHeader) {
		if err := h.Set(x.c.cfg.RequestIDHeader, x.req.ID); err != nil {
			x.abort("write", err)
			return
		}
	}
	hasBody := x.req.b.present
	if hasBody {
		if err := h.Set("content-length", strconv.Itoa(len(x.body))); err != nil {
			x.abort("write", err)
			return
		}
	}
	msg := http1.AppendRequest(nil, x.req.Method, x.req.Path(), h.fields(), x.body, hasBody)
	if err := x.socket().Write(msg); err != nil {
		x.abort("write", fmt.Errorf("%w: write: %v", ErrNetworkConnectFailed, err))
	}
}

// abort releases the socket and rejects.
func (x *exchange) abort(stage string, err error) {
	x.c.pool.Release(x.socket())
	x.fail(stage, err)
}

func (x *exchange) fail(stage string, err error) {
	if !x.fut.reject(err) {
		return
	}
	x.c.logf(obs.Warn, "%s %s failed at %s: %v", x.req.Method, x.req.URL, stage, err)
	x.c.metricCounter("fetch_requests_error_total", 1, obs.Label{Key: "stage", Value: stage})
}
