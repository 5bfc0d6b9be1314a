package signal

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// #region receiver
// Receiver keeps the latest decoded signal in a single slot. The transport
// goroutine writes, the frame loop reads with Poll.
type Receiver struct {
	transport Transport
	now       func() time.Time

	mu        sync.Mutex
	latest    *Signal
	status    error
	connected bool

	received     atomic.Uint64
	dropped      atomic.Uint64
	decodeErrors atomic.Uint64
	disconnects  atomic.Uint64

	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Receiver.
type Option func(*Receiver)

// WithClock overrides the clock used to stamp ReceivedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Receiver) { r.now = now }
}

// NewReceiver wraps t. t may be nil, in which case only Inject delivers
// signals and Status never reports a connection. The receiver counts as
// disconnected until the transport reports its first connection.
func NewReceiver(t Transport, opts ...Option) *Receiver {
	r := &Receiver{transport: t, now: time.Now}
	if t == nil {
		r.status = fmt.Errorf("%w: no transport", ErrTransportDisconnected)
	} else {
		r.status = fmt.Errorf("%w: not connected yet", ErrTransportDisconnected)
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// #endregion receiver

// #region lifecycle
// Open starts the transport's receive loop in its own goroutine.
func (r *Receiver) Open(ctx context.Context) error {
	if r.transport == nil {
		return nil
	}
	if r.cancel != nil {
		return fmt.Errorf("receiver already open")
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		err := r.transport.Run(ctx, func(p []byte) { r.accept(p) }, r.setStatus)
		if err != nil && ctx.Err() == nil {
			log.Printf("signal transport stopped: %v", err)
			r.setStatus(err)
		}
	}()
	return nil
}

// Close stops the receive loop and closes the transport.
func (r *Receiver) Close() error {
	if r.transport == nil {
		return nil
	}
	if r.cancel != nil {
		r.cancel()
		<-r.done
		r.cancel = nil
	}
	return r.transport.Close()
}

// #endregion lifecycle

// #region delivery
// Inject delivers a payload as if it came from the transport.
func (r *Receiver) Inject(payload []byte) error {
	return r.accept(payload)
}

func (r *Receiver) accept(payload []byte) error {
	sig, err := Decode(payload)
	if err != nil {
		r.decodeErrors.Add(1)
		log.Printf("dropping signal: %v", err)
		return err
	}
	sig.ReceivedAt = r.now()
	r.received.Add(1)

	r.mu.Lock()
	if r.latest != nil {
		r.dropped.Add(1)
	}
	r.latest = &sig
	r.mu.Unlock()
	return nil
}

func (r *Receiver) setStatus(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		r.status = nil
		r.connected = true
		return
	}
	if r.connected {
		r.disconnects.Add(1)
	}
	r.connected = false
	r.status = fmt.Errorf("%w: %v", ErrTransportDisconnected, err)
}

// #endregion delivery

// #region poll
// Poll returns the signal that arrived most recently since the previous
// Poll. It never blocks on the transport.
func (r *Receiver) Poll() (Signal, bool) {
	r.mu.Lock()
	s := r.latest
	r.latest = nil
	r.mu.Unlock()
	if s == nil {
		return Signal{}, false
	}
	return *s, true
}

// Status reports whether the transport is currently connected.
func (r *Receiver) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Status{Connected: r.connected, Err: r.status}
}

// Stats returns message counters.
func (r *Receiver) Stats() Stats {
	return Stats{
		Received:     r.received.Load(),
		Dropped:      r.dropped.Load(),
		DecodeErrors: r.decodeErrors.Load(),
		Disconnects:  r.disconnects.Load(),
	}
}

// #endregion poll
