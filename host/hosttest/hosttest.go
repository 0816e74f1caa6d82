// Package hosttest provides a scripted host for tests. Nothing happens on
// its own: tests deliver connect, handshake, data and disconnect events by
// hand and move a virtual clock to fire timers.
package hosttest

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/f0zi/fetch/host"
)

// Host is a deterministic host.Host.
type Host struct {
	mu      sync.Mutex
	next    host.Handle
	sockets []*Socket
	timers  []*Timer
	now     time.Duration
	seq     int
}

// New returns an empty Host.
func New() *Host {
	return &Host{}
}

// NewSocket implements host.Host.
func (h *Host) NewSocket(ev host.Events) host.Socket {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	s := &Socket{host: h, handle: h.next, ev: ev}
	h.sockets = append(h.sockets, s)
	return s
}

// AfterFunc implements host.Host on the virtual clock.
func (h *Host) AfterFunc(d time.Duration, f func()) host.Timer {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	t := &Timer{host: h, at: h.now + d, seq: h.seq, f: f}
	h.timers = append(h.timers, t)
	return t
}

// Advance moves the virtual clock forward by d and fires every timer that
// came due, in deadline order. Timers fire on the calling goroutine.
func (h *Host) Advance(d time.Duration) {
	h.mu.Lock()
	h.now += d
	var due []*Timer
	kept := h.timers[:0]
	for _, t := range h.timers {
		if t.at <= h.now {
			t.fired = true
			due = append(due, t)
			continue
		}
		kept = append(kept, t)
	}
	h.timers = kept
	h.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].at != due[j].at {
			return due[i].at < due[j].at
		}
		return due[i].seq < due[j].seq
	})
	for _, t := range due {
		t.f()
	}
}

// PendingTimers reports how many timers are armed.
func (h *Host) PendingTimers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.timers)
}

// Sockets returns every socket created so far, in creation order.
func (h *Host) Sockets() []*Socket {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Socket, len(h.sockets))
	copy(out, h.sockets)
	return out
}

// Socket returns the socket with the given handle or nil.
func (h *Host) Socket(handle host.Handle) *Socket {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.sockets {
		if s.handle == handle {
			return s
		}
	}
	return nil
}

// Timer is a virtual-clock timer.
type Timer struct {
	host  *Host
	at    time.Duration
	seq   int
	f     func()
	fired bool
}

// Stop disarms the timer. It reports false if the timer already fired or
// was stopped.
func (t *Timer) Stop() bool {
	t.host.mu.Lock()
	defer t.host.mu.Unlock()
	for i, x := range t.host.timers {
		if x == t {
			t.host.timers = append(t.host.timers[:i], t.host.timers[i+1:]...)
			return true
		}
	}
	return false
}

// Socket records what the client asked of it and lets the test emit events.
type Socket struct {
	host   *Host
	handle host.Handle
	ev     host.Events

	mu sync.Mutex
	// RefuseHandshake makes StartHandshake report false.
	RefuseHandshake bool
	// WriteErr is returned by Write when set.
	WriteErr error

	addr       string
	opens      int
	closes     int
	handshakes int
	framing    bool
	noBody     bool
	written    []byte
}

// Handle implements host.Socket.
func (s *Socket) Handle() host.Handle { return s.handle }

// Open implements host.Socket. It only records the address.
func (s *Socket) Open(hostname string, port int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opens++
	s.addr = fmt.Sprintf("%s:%d", hostname, port)
	s.written = nil
}

// Write implements host.Socket.
func (s *Socket) Write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != nil {
		return s.WriteErr
	}
	s.written = append(s.written, p...)
	return nil
}

// Close implements host.Socket.
func (s *Socket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

// StartHandshake implements host.Socket.
func (s *Socket) StartHandshake() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handshakes++
	return !s.RefuseHandshake
}

// EnableFraming implements host.Socket.
func (s *Socket) EnableFraming(noBody bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.framing = true
	s.noBody = noBody
}

// Addr is the host:port of the last Open.
func (s *Socket) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Written returns the bytes written since the last Open.
func (s *Socket) Written() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.written)
}

// Opens counts Open calls.
func (s *Socket) Opens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens
}

// Closes counts Close calls.
func (s *Socket) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// Handshakes counts StartHandshake calls.
func (s *Socket) Handshakes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handshakes
}

// Framing reports whether EnableFraming was called.
func (s *Socket) Framing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.framing
}

// NoBody reports the flag passed to the last EnableFraming.
func (s *Socket) NoBody() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.noBody
}

// Connect delivers OnConnect.
func (s *Socket) Connect() { s.ev.OnConnect(s.handle) }

// ConnectFailed delivers OnConnectFailed.
func (s *Socket) ConnectFailed() { s.ev.OnConnectFailed(s.handle) }

// HandshakeOK delivers OnHandshakeOK.
func (s *Socket) HandshakeOK() { s.ev.OnHandshakeOK(s.handle) }

// HandshakeFailed delivers OnHandshakeFailed.
func (s *Socket) HandshakeFailed() { s.ev.OnHandshakeFailed(s.handle) }

// Receive delivers OnData.
func (s *Socket) Receive(data string) { s.ev.OnData(s.handle, []byte(data)) }

// Disconnect delivers OnDisconnect.
func (s *Socket) Disconnect() { s.ev.OnDisconnect(s.handle) }
