package fetch

import (
	"sync"
	"time"

	"github.com/f0zi/fetch/host"
	"github.com/f0zi/fetch/internal/obs"
)

// BypassPriority is the highest priority that still waits in the deferred
// queue. Requests above it get a new socket even when the pool is full.
const BypassPriority = 9000

// PoolOptions configures a Pool. Zero limits mean unbounded.
type PoolOptions struct {
	// MaxOutstanding caps the sockets bound to handlers at once.
	MaxOutstanding int
	// MaxDeferred caps the requests waiting for a socket.
	MaxDeferred int
	// DisablePooling discards released sockets instead of keeping them idle.
	DisablePooling bool

	Logger obs.Logger
	Meter  obs.Meter
}

// AcquireOptions controls how one Acquire waits.
type AcquireOptions struct {
	Priority int
	// Timeout bounds the time spent in the deferred queue. Zero waits
	// until a socket frees up.
	Timeout time.Duration
}

// PoolStats is a snapshot of a pool.
type PoolStats struct {
	Idle        int
	Active      int
	Deferred    int
	Outstanding int
}

type deferredEntry struct {
	h        Handler
	priority int
	done     func(host.Socket, error)
	timer    host.Timer
	settled  bool
}

// Pool hands host sockets to handlers, bounding how many are in use and
// queueing the excess by priority.
//
// Idle sockets are closed and reused most-recently-released first. A
// released socket goes to the head of the deferred queue before it goes
// idle. Sockets are created lazily and never destroyed; the pool only
// grows.
type Pool struct {
	host host.Host
	opts PoolOptions
	disp *dispatcher

	mu          sync.Mutex
	idle        []host.Socket
	active      map[host.Handle]host.Socket
	deferred    []*deferredEntry
	outstanding int
}

// NewPool returns an empty pool creating sockets on h.
func NewPool(h host.Host, opts PoolOptions) *Pool {
	return &Pool{
		host:   h,
		opts:   opts,
		disp:   newDispatcher(),
		active: make(map[host.Handle]host.Socket),
	}
}

// Acquire binds a socket to h and passes it to done. done runs exactly
// once and never with the pool locked: synchronously when a socket is
// available or the queue is full, later when a deferred request is
// serviced or times out (ErrTimeout).
func (p *Pool) Acquire(h Handler, opts AcquireOptions, done func(host.Socket, error)) {
	p.mu.Lock()

	if n := len(p.idle); n > 0 {
		s := p.idle[n-1]
		p.idle[n-1] = nil
		p.idle = p.idle[:n-1]
		p.bindLocked(s, h)
		p.mu.Unlock()
		p.logf(obs.Debug, "reuse socket %d", s.Handle())
		p.metricCounter("fetch_pool_reuse_total", 1)
		done(s, nil)
		return
	}

	if p.opts.MaxOutstanding > 0 && p.outstanding >= p.opts.MaxOutstanding && opts.Priority <= BypassPriority {
		if p.opts.MaxDeferred > 0 && len(p.deferred) >= p.opts.MaxDeferred {
			p.mu.Unlock()
			p.logf(obs.Warn, "deferred queue full (%d), rejecting", p.opts.MaxDeferred)
			p.metricCounter("fetch_pool_queue_full_total", 1)
			done(nil, ErrQueueFull)
			return
		}
		e := &deferredEntry{h: h, priority: opts.Priority, done: done}
		p.enqueueLocked(e)
		if opts.Timeout > 0 {
			e.timer = p.host.AfterFunc(opts.Timeout, func() { p.expire(e) })
		}
		depth := len(p.deferred)
		p.mu.Unlock()
		p.logf(obs.Debug, "deferred at priority %d, queue depth %d", opts.Priority, depth)
		p.metricCounter("fetch_pool_deferred_total", 1)
		return
	}

	s := p.host.NewSocket(p.disp)
	p.bindLocked(s, h)
	p.mu.Unlock()
	p.logf(obs.Debug, "created socket %d", s.Handle())
	p.metricCounter("fetch_pool_created_total", 1)
	done(s, nil)
}

// enqueueLocked inserts e after every entry of the same or higher priority.
func (p *Pool) enqueueLocked(e *deferredEntry) {
	i := len(p.deferred)
	for j, x := range p.deferred {
		if x.priority < e.priority {
			i = j
			break
		}
	}
	p.deferred = append(p.deferred, nil)
	copy(p.deferred[i+1:], p.deferred[i:])
	p.deferred[i] = e
}

func (p *Pool) bindLocked(s host.Socket, h Handler) {
	p.active[s.Handle()] = s
	p.disp.bind(s.Handle(), h)
	p.outstanding++
}

func (p *Pool) expire(e *deferredEntry) {
	p.mu.Lock()
	if e.settled {
		p.mu.Unlock()
		return
	}
	e.settled = true
	for i, x := range p.deferred {
		if x == e {
			p.deferred = append(p.deferred[:i], p.deferred[i+1:]...)
			break
		}
	}
	p.mu.Unlock()
	p.logf(obs.Warn, "deferred request timed out at priority %d", e.priority)
	p.metricCounter("fetch_pool_timeout_total", 1)
	e.done(nil, ErrTimeout)
}

// Release unbinds s from its handler and closes it. The socket then goes
// to the first deferred request, or to the idle list. Releasing a socket
// that is not bound does nothing.
func (p *Pool) Release(s host.Socket) {
	if s == nil {
		return
	}
	hd := s.Handle()
	p.mu.Lock()
	if _, ok := p.active[hd]; !ok {
		p.mu.Unlock()
		return
	}
	delete(p.active, hd)
	p.disp.unbind(hd)
	p.outstanding--
	if err := s.Close(); err != nil {
		p.logf(obs.Debug, "close socket %d: %v", hd, err)
	}

	if len(p.deferred) > 0 {
		e := p.deferred[0]
		p.deferred[0] = nil
		p.deferred = p.deferred[1:]
		e.settled = true
		if e.timer != nil {
			e.timer.Stop()
		}
		p.bindLocked(s, e.h)
		p.mu.Unlock()
		p.logf(obs.Debug, "socket %d handed to deferred request at priority %d", hd, e.priority)
		e.done(s, nil)
		return
	}
	if !p.opts.DisablePooling {
		p.idle = append(p.idle, s)
	}
	p.mu.Unlock()
}

// CloseIdle forgets every idle socket and reports how many there were.
func (p *Pool) CloseIdle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.idle)
	p.idle = nil
	return n
}

// Stats returns the current counts.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PoolStats{
		Idle:        len(p.idle),
		Active:      len(p.active),
		Deferred:    len(p.deferred),
		Outstanding: p.outstanding,
	}
}

func (p *Pool) logf(level obs.Level, format string, args ...interface{}) {
	obs.OrNop(p.opts.Logger).Logf(level, format, args...)
}

func (p *Pool) metricCounter(name string, value float64, labels ...obs.Label) {
	m := p.opts.Meter
	if m == nil {
		m = obs.NopMeter{}
	}
	m.Counter(name, value, labels...)
}
