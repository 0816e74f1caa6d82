// Package nethost implements host.Host on top of the net and crypto/tls
// packages.
//
// Dials, handshakes and reads run on their own goroutines, but every
// callback and timer function is delivered on a single event-loop
// goroutine, one at a time, in the order the results arrived. Each socket
// counts its connections; results belonging to a connection that has since
// been closed or replaced are dropped.
package nethost

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/http/httpguts"

	"github.com/f0zi/fetch/host"
	"github.com/f0zi/fetch/internal/http1"
	"github.com/f0zi/fetch/internal/obs"
)

// ErrNotConnected is returned by Write on a socket with no open connection.
var ErrNotConnected = errors.New("nethost: socket not connected")

// Options configures a Host.
type Options struct {
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// TLSConfig is cloned for every handshake. ServerName defaults to the
	// dialed host and NextProtos to http/1.1.
	TLSConfig *tls.Config
	// MaxResponseBytes caps a framed response. Zero means 8 MiB; negative
	// is unlimited.
	MaxResponseBytes int64

	Logger obs.Logger
}

const defaultMaxResponse = 8 << 20

// Host is a network-backed host.Host. Create it with New and stop it with
// Close.
type Host struct {
	opts Options
	next atomic.Uint64

	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
	quit  chan struct{}
	once  sync.Once
}

// New starts the event loop and returns the host.
func New(opts Options) *Host {
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	h := &Host{
		opts: opts,
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
	}
	go h.loop()
	return h
}

// Close stops the event loop. Pending callbacks are discarded.
func (h *Host) Close() error {
	h.once.Do(func() { close(h.quit) })
	return nil
}

func (h *Host) post(fn func()) {
	h.mu.Lock()
	h.queue = append(h.queue, fn)
	h.mu.Unlock()
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

func (h *Host) loop() {
	for {
		select {
		case <-h.quit:
			return
		case <-h.wake:
		}
		for {
			h.mu.Lock()
			if len(h.queue) == 0 {
				h.mu.Unlock()
				break
			}
			fn := h.queue[0]
			h.queue[0] = nil
			h.queue = h.queue[1:]
			h.mu.Unlock()
			fn()
		}
	}
}

func (h *Host) logf(level obs.Level, format string, args ...interface{}) {
	obs.OrNop(h.opts.Logger).Logf(level, format, args...)
}

// AfterFunc implements host.Host. f runs on the event loop.
func (h *Host) AfterFunc(d time.Duration, f func()) host.Timer {
	return time.AfterFunc(d, func() { h.post(f) })
}

// NewSocket implements host.Host.
func (h *Host) NewSocket(ev host.Events) host.Socket {
	return &socket{h: h, handle: host.Handle(h.next.Add(1)), ev: ev}
}

type socket struct {
	h      *Host
	handle host.Handle
	ev     host.Events

	mu       sync.Mutex
	gen      uint64
	conn     net.Conn
	hostname string
	framing  bool
	noBody   bool
	reading  bool
}

func (s *socket) Handle() host.Handle { return s.handle }

func (s *socket) EnableFraming(noBody bool) {
	s.mu.Lock()
	s.framing = true
	s.noBody = noBody
	s.mu.Unlock()
}

// deliver runs fn on the loop if gen is still the socket's connection.
func (s *socket) deliver(gen uint64, fn func()) {
	s.h.post(func() {
		s.mu.Lock()
		ok := s.gen == gen
		s.mu.Unlock()
		if ok {
			fn()
		}
	})
}

// reset drops the current connection and starts a new generation.
func (s *socket) reset() (uint64, net.Conn) {
	s.gen++
	old := s.conn
	s.conn = nil
	s.reading = false
	return s.gen, old
}

func (s *socket) Open(hostname string, port int) {
	s.mu.Lock()
	gen, old := s.reset()
	s.hostname = hostname
	s.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}

	if !httpguts.ValidHostHeader(hostname) {
		s.h.logf(obs.Warn, "socket %d: invalid host %q", s.handle, hostname)
		s.deliver(gen, func() { s.ev.OnConnectFailed(s.handle) })
		return
	}
	addr := net.JoinHostPort(hostname, strconv.Itoa(port))
	go func() {
		d := net.Dialer{Timeout: s.h.opts.DialTimeout}
		c, err := d.Dial("tcp", addr)
		s.h.post(func() {
			s.mu.Lock()
			if s.gen != gen {
				s.mu.Unlock()
				if c != nil {
					_ = c.Close()
				}
				return
			}
			if err != nil {
				s.mu.Unlock()
				s.h.logf(obs.Warn, "socket %d: dial %s failed: %v", s.handle, addr, err)
				s.ev.OnConnectFailed(s.handle)
				return
			}
			s.conn = c
			s.mu.Unlock()
			s.ev.OnConnect(s.handle)
		})
	}()
}

func (s *socket) Close() error {
	s.mu.Lock()
	_, old := s.reset()
	s.mu.Unlock()
	if old != nil {
		return old.Close()
	}
	return nil
}

func (s *socket) StartHandshake() bool {
	s.mu.Lock()
	if s.conn == nil {
		s.mu.Unlock()
		return false
	}
	var cfg *tls.Config
	if s.h.opts.TLSConfig != nil {
		cfg = s.h.opts.TLSConfig.Clone()
	} else {
		cfg = &tls.Config{}
	}
	if cfg.ServerName == "" {
		cfg.ServerName = s.hostname
	}
	if len(cfg.NextProtos) == 0 {
		cfg.NextProtos = []string{"http/1.1"}
	}
	tc := tls.Client(s.conn, cfg)
	s.conn = tc
	gen := s.gen
	s.mu.Unlock()

	go func() {
		ctx := context.Background()
		if d := s.h.opts.DialTimeout; d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		err := tc.HandshakeContext(ctx)
		s.deliver(gen, func() {
			if err != nil {
				s.h.logf(obs.Warn, "socket %d: TLS handshake with %s failed: %v", s.handle, cfg.ServerName, err)
				s.ev.OnHandshakeFailed(s.handle)
				return
			}
			s.ev.OnHandshakeOK(s.handle)
		})
	}()
	return true
}

func (s *socket) Write(p []byte) error {
	s.mu.Lock()
	c := s.conn
	if c == nil {
		s.mu.Unlock()
		return ErrNotConnected
	}
	gen := s.gen
	framing, noBody := s.framing, s.noBody
	startRead := !s.reading
	s.reading = true
	s.mu.Unlock()

	if startRead {
		go s.read(c, gen, framing, noBody)
	}
	if d := s.h.opts.WriteTimeout; d > 0 {
		_ = c.SetWriteDeadline(time.Now().Add(d))
	}
	_, err := c.Write(p)
	return err
}

func (s *socket) read(c net.Conn, gen uint64, framing, noBody bool) {
	if d := s.h.opts.ReadTimeout; d > 0 {
		_ = c.SetReadDeadline(time.Now().Add(d))
	}
	disconnect := func() { s.deliver(gen, func() { s.ev.OnDisconnect(s.handle) }) }

	if !framing {
		buf := make([]byte, 32<<10)
		for {
			n, err := c.Read(buf)
			if n > 0 {
				data := append([]byte(nil), buf[:n]...)
				s.deliver(gen, func() { s.ev.OnData(s.handle, data) })
			}
			if err != nil {
				disconnect()
				return
			}
		}
	}

	limit := s.h.opts.MaxResponseBytes
	if limit == 0 {
		limit = defaultMaxResponse
	}
	br := bufio.NewReader(c)
	for {
		msg, err := http1.ReadMessage(br, limit, noBody)
		if err != nil {
			if err != io.EOF {
				s.h.logf(obs.Debug, "socket %d: read: %v", s.handle, err)
			}
			disconnect()
			return
		}
		if code := http1.MessageStatus(msg); code >= 100 && code < 200 && code != 101 {
			s.h.logf(obs.Debug, "socket %d: skipping interim %d response", s.handle, code)
			continue
		}
		s.deliver(gen, func() { s.ev.OnData(s.handle, msg) })
	}
}
