// Package echo is a small HTTP/1.1 server that answers every request with
// a plain-text description of it. The fetch CLI serves it and the network
// tests run the client against it.
package echo

import (
	"bufio"
	"bytes"
	"errors"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/f0zi/fetch/internal/http1"
	"github.com/f0zi/fetch/internal/obs"
)

// ErrServerClosed is returned by Serve after Close.
var ErrServerClosed = errors.New("echo: server closed")

// Server answers one request per connection and then closes it.
//
// The response is 200 text/plain unless the target is /status/NNN, which
// answers with status NNN. The body is the request line, the request
// header lines, a blank line and the request body.
type Server struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxHeaderBytes int
	MaxBodyBytes   int64

	Logger obs.Logger

	mu     sync.Mutex
	ln     net.Listener
	closed bool
}

// ListenAndServe listens on s.Addr, or :8080 if empty, and calls Serve.
func (s *Server) ListenAndServe() error {
	addr := s.Addr
	if addr == "" {
		addr = ":8080"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on l and answers one request on each. It
// returns ErrServerClosed after Close.
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = l.Close()
		return ErrServerClosed
	}
	s.ln = l
	s.mu.Unlock()
	defer l.Close()
	s.logf(obs.Info, "echo listening on %s", l.Addr())
	for {
		c, err := l.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return ErrServerClosed
			}
			return err
		}
		go s.serveConn(c)
	}
}

// Close stops accepting connections. In-flight requests finish on their own.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.ln != nil {
		return s.ln.Close()
	}
	return nil
}

func (s *Server) serveConn(c net.Conn) {
	defer c.Close()
	if s.ReadTimeout > 0 {
		_ = c.SetReadDeadline(time.Now().Add(s.ReadTimeout))
	}
	br := bufio.NewReader(c)
	bw := bufio.NewWriter(c)
	rr := &http1.Reader{
		BR:             br,
		MaxHeaderBytes: s.headerLimit(),
		MaxBodyBytes:   s.MaxBodyBytes,
		Continue: func() error {
			if err := http1.WriteContinue(bw); err != nil {
				return err
			}
			return bw.Flush()
		},
	}
	pr, err := rr.ReadRequest()
	if err != nil {
		s.logf(obs.Debug, "echo: bad request from %s: %v", c.RemoteAddr(), err)
		status := 400
		if errors.Is(err, http1.ErrHeaderTooLarge) {
			status = 431
		} else if errors.Is(err, http1.ErrBodyTooLarge) {
			status = 413
		}
		_ = http1.WriteResponse(bw, status, "", nil, nil, false)
		_ = bw.Flush()
		return
	}

	status := statusFor(pr.RequestURI)
	var body []byte
	if pr.Method != "HEAD" && status != 204 && status != 304 {
		body = describe(pr)
	}
	if s.WriteTimeout > 0 {
		_ = c.SetWriteDeadline(time.Now().Add(s.WriteTimeout))
	}
	fields := []http1.Field{{Name: "Content-Type", Value: "text/plain; charset=utf-8"}}
	if err := http1.WriteResponse(bw, status, "", fields, body, false); err != nil {
		return
	}
	if err := bw.Flush(); err != nil {
		s.logf(obs.Debug, "echo: write to %s: %v", c.RemoteAddr(), err)
		return
	}
	s.logf(obs.Debug, "echo: %s %s -> %d", pr.Method, pr.RequestURI, status)
}

func statusFor(target string) int {
	rest, ok := strings.CutPrefix(target, "/status/")
	if !ok {
		return 200
	}
	if i := strings.IndexAny(rest, "/?"); i >= 0 {
		rest = rest[:i]
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 200 || n > 599 {
		return 200
	}
	return n
}

func describe(pr *http1.ParsedRequest) []byte {
	var b bytes.Buffer
	b.WriteString(pr.Method + " " + pr.RequestURI + " " + pr.Proto + "\n")
	for _, f := range pr.Fields {
		b.WriteString(f.Name + ": " + f.Value + "\n")
	}
	b.WriteString("\n")
	b.Write(pr.Body)
	return b.Bytes()
}

func (s *Server) headerLimit() int {
	if s.MaxHeaderBytes <= 0 {
		return 8 << 10
	}
	return s.MaxHeaderBytes
}

func (s *Server) logf(level obs.Level, format string, args ...interface{}) {
	obs.OrNop(s.Logger).Logf(level, format, args...)
}
