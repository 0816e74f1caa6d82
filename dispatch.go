package fetch

import (
	"sync"

	"github.com/f0zi/fetch/host"
)

// Handler receives the events of the socket it is bound to. A handler is
// bound from the moment the pool hands it a socket until that socket is
// released.
type Handler interface {
	OnConnect()
	OnConnectFailed()
	OnDisconnect()
	OnHandshakeOK()
	OnHandshakeFailed()
	OnData(data []byte)
}

// dispatcher is the host.Events sink shared by every socket of a pool. It
// forwards each callback to the handler currently bound to the handle and
// drops callbacks for unbound handles.
type dispatcher struct {
	mu       sync.RWMutex
	handlers map[host.Handle]Handler
}

func newDispatcher() *dispatcher {
	return &dispatcher{handlers: make(map[host.Handle]Handler)}
}

func (d *dispatcher) bind(h host.Handle, hd Handler) {
	d.mu.Lock()
	d.handlers[h] = hd
	d.mu.Unlock()
}

func (d *dispatcher) unbind(h host.Handle) {
	d.mu.Lock()
	delete(d.handlers, h)
	d.mu.Unlock()
}

func (d *dispatcher) lookup(h host.Handle) Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.handlers[h]
}

func (d *dispatcher) OnConnect(h host.Handle) {
	if hd := d.lookup(h); hd != nil {
		hd.OnConnect()
	}
}

func (d *dispatcher) OnConnectFailed(h host.Handle) {
	if hd := d.lookup(h); hd != nil {
		hd.OnConnectFailed()
	}
}

func (d *dispatcher) OnDisconnect(h host.Handle) {
	if hd := d.lookup(h); hd != nil {
		hd.OnDisconnect()
	}
}

func (d *dispatcher) OnHandshakeOK(h host.Handle) {
	if hd := d.lookup(h); hd != nil {
		hd.OnHandshakeOK()
	}
}

func (d *dispatcher) OnHandshakeFailed(h host.Handle) {
	if hd := d.lookup(h); hd != nil {
		hd.OnHandshakeFailed()
	}
}

func (d *dispatcher) OnData(h host.Handle, data []byte) {
	if hd := d.lookup(h); hd != nil {
		hd.OnData(data)
	}
}
