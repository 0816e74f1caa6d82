// Package host defines the contract between the fetch client and the
// environment that owns the actual sockets and timers.
//
// The host addresses every socket by an opaque Handle and reports progress
// through handle-keyed callbacks. Implementations decide how callbacks are
// scheduled; the fetch client only relies on the rules documented on each
// method.
package host

import "time"

// Handle identifies one socket across asynchronous callbacks.
type Handle uint64

// Events receives the lifecycle and data callbacks of every socket created
// with it. Each callback carries the handle of the socket it concerns.
type Events interface {
	OnConnect(h Handle)
	OnConnectFailed(h Handle)
	OnDisconnect(h Handle)
	OnHandshakeOK(h Handle)
	OnHandshakeFailed(h Handle)
	OnData(h Handle, data []byte)
}

// Socket is a host transport. A socket may be opened again after Close;
// the handle stays the same across reuse.
//
// None of the methods may invoke Events synchronously.
type Socket interface {
	Handle() Handle
	// Open starts connecting to host:port. Completion is reported through
	// OnConnect or OnConnectFailed.
	Open(host string, port int)
	Write(p []byte) error
	// Close tears down the current connection. Callbacks that belong to the
	// closed connection must not be delivered afterwards.
	Close() error
	// StartHandshake begins a TLS handshake on the open connection and
	// reports whether it could be started.
	StartHandshake() bool
	// EnableFraming asks the host to deliver received bytes as whole HTTP
	// messages instead of raw reads. noBody is set for HEAD requests, whose
	// reply ends after the header even when it carries a Content-Length.
	// Interim 1xx replies other than 101 are not delivered.
	EnableFraming(noBody bool)
}

// Timer is a one-shot timer started by Host.AfterFunc.
type Timer interface {
	Stop() bool
}

// Host creates sockets and timers.
type Host interface {
	// NewSocket creates a socket whose callbacks are delivered to ev.
	NewSocket(ev Events) Socket
	// AfterFunc calls f once after d. f is never called before AfterFunc
	// returns.
	AfterFunc(d time.Duration, f func()) Timer
}
