package fetch

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/f0zi/fetch/host"
	"github.com/f0zi/fetch/host/nethost"
	"github.com/f0zi/fetch/internal/obs"
)

// Config tunes a Client. The zero value is usable: no limits, pooling on.
type Config struct {
	// MaxOutstanding caps the sockets in use at once. Zero is unbounded.
	MaxOutstanding int
	// MaxDeferred caps the requests waiting for a socket. Zero is unbounded.
	MaxDeferred int
	// DisablePooling discards sockets after each request.
	DisablePooling bool
	// RequestIDHeader, when set, names a header that carries Request.ID
	// unless the request already has it.
	RequestIDHeader string

	Logger obs.Logger
	Meter  obs.Meter
}

// Client issues requests over sockets from its own Pool.
type Client struct {
	cfg  Config
	pool *Pool
}

// NewClient returns a client creating sockets on h.
func NewClient(h host.Host, cfg Config) *Client {
	return &Client{
		cfg: cfg,
		pool: NewPool(h, PoolOptions{
			MaxOutstanding: cfg.MaxOutstanding,
			MaxDeferred:    cfg.MaxDeferred,
			DisablePooling: cfg.DisablePooling,
			Logger:         cfg.Logger,
			Meter:          cfg.Meter,
		}),
	}
}

// Pool returns the client's socket pool.
func (c *Client) Pool() *Pool { return c.pool }

// Fetch builds a request from url and init and issues it. Construction
// errors reject the returned future.
func (c *Client) Fetch(url string, init *RequestInit) *Future {
	req, err := NewRequest(url, init)
	if err != nil {
		return rejected(err)
	}
	return c.Do(req)
}

// Do issues req. Its body is marked as read; a request whose body was
// already read is rejected with ErrAlreadyRead.
func (c *Client) Do(req *Request) *Future {
	p, err := req.b.consume()
	if err != nil {
		return rejected(err)
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	x := &exchange{c: c, req: req, body: p, fut: newFuture(), start: time.Now()}
	c.metricCounter("fetch_requests_total", 1, obs.Label{Key: "method", Value: req.Method})
	c.pool.Acquire(x, AcquireOptions{Priority: req.Priority, Timeout: req.Timeout}, x.acquired)
	return x.fut
}

func (c *Client) logf(level obs.Level, format string, args ...interface{}) {
	obs.OrNop(c.cfg.Logger).Logf(level, format, args...)
}

func (c *Client) metricCounter(name string, value float64, labels ...obs.Label) {
	c.getMeter().Counter(name, value, labels...)
}

func (c *Client) metricHistogram(name string, value float64, labels ...obs.Label) {
	c.getMeter().Histogram(name, value, labels...)
}

func (c *Client) getMeter() obs.Meter {
	if c.cfg.Meter != nil {
		return c.cfg.Meter
	}
	return obs.NopMeter{}
}

var (
	defaultOnce   sync.Once
	defaultClient *Client
)

// DefaultClient returns the process-wide client used by Fetch. It talks to
// the network through nethost with default options.
func DefaultClient() *Client {
	defaultOnce.Do(func() {
		defaultClient = NewClient(nethost.New(nethost.Options{}), Config{})
	})
	return defaultClient
}

// Fetch issues a request through DefaultClient.
func Fetch(url string, init *RequestInit) *Future {
	return DefaultClient().Fetch(url, init)
}
