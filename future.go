package fetch

import (
	"context"
	"sync/atomic"
)

// Future is the pending result of a fetch. It settles exactly once, with
// either a Response or an error.
type Future struct {
	settled atomic.Bool
	done    chan struct{}
	resp    *Response
	err     error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func rejected(err error) *Future {
	f := newFuture()
	f.reject(err)
	return f
}

func (f *Future) resolve(r *Response) bool {
	if !f.settled.CompareAndSwap(false, true) {
		return false
	}
	f.resp = r
	close(f.done)
	return true
}

func (f *Future) reject(err error) bool {
	if !f.settled.CompareAndSwap(false, true) {
		return false
	}
	f.err = err
	close(f.done)
	return true
}

// Done is closed once the future settles.
func (f *Future) Done() <-chan struct{} { return f.done }

// Settled reports whether the future has a result.
func (f *Future) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Await blocks until the future settles or ctx ends. Giving up on ctx does
// not cancel the request.
func (f *Future) Await(ctx context.Context) (*Response, error) {
	select {
	case <-f.done:
		return f.resp, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Wait blocks until the future settles.
func (f *Future) Wait() (*Response, error) {
	<-f.done
	return f.resp, f.err
}
