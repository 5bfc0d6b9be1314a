package grpcsub

import (
	"context"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// #region broadcaster
// Broadcaster fans payloads out to every connected subscriber. Each
// subscriber holds at most one undelivered payload; a newer one replaces it.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[chan []byte]struct{}
	closed chan struct{}
	once   sync.Once
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs:   make(map[chan []byte]struct{}),
		closed: make(chan struct{}),
	}
}

// Publish queues payload for every subscriber and returns how many there
// were. It never blocks.
func (b *Broadcaster) Publish(payload []byte) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- payload:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- payload
		}
	}
	return len(b.subs)
}

// Subscribers returns the number of connected streams.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close ends every open stream.
func (b *Broadcaster) Close() {
	b.once.Do(func() { close(b.closed) })
}

// Subscribe streams payloads until the client goes away or the broadcaster
// is closed.
func (b *Broadcaster) Subscribe(_ *emptypb.Empty, stream grpc.ServerStream) error {
	if err := stream.SendHeader(metadata.MD{}); err != nil {
		return err
	}
	ch := make(chan []byte, 1)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
	}()

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-b.closed:
			return nil
		case p := <-ch:
			if err := stream.SendMsg(wrapperspb.Bytes(p)); err != nil {
				return err
			}
		}
	}
}

// WaitSubscribers blocks until at least n streams are connected.
func (b *Broadcaster) WaitSubscribers(ctx context.Context, n int) error {
	for b.Subscribers() < n {
		if err := sleep(ctx, pollInterval); err != nil {
			return err
		}
	}
	return nil
}

// #endregion broadcaster
