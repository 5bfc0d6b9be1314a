package grpcsub

import (
	"context"
	"fmt"
	"io"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const pollInterval = 5 * time.Millisecond

// #region subscriber-struct
// Subscriber implements signal.Transport against a SignalService server.
type Subscriber struct {
	conn  *grpc.ClientConn
	retry time.Duration
}

// #endregion subscriber-struct

// #region constructor
// NewSubscriber creates a lazily connecting client for addr. Extra dial
// options are appended after the insecure transport credentials.
func NewSubscriber(addr string, retry time.Duration, opts ...grpc.DialOption) (*Subscriber, error) {
	if retry <= 0 {
		retry = time.Second
	}
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Subscriber{conn: conn, retry: retry}, nil
}

// #endregion constructor

// #region run
// Run opens the stream and forwards payloads until ctx is cancelled. A
// broken stream is reported through status and reopened after the retry
// delay.
func (s *Subscriber) Run(ctx context.Context, deliver func([]byte), status func(error)) error {
	for {
		err := s.stream(ctx, deliver, status)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			err = io.EOF
		}
		status(err)
		if sleep(ctx, s.retry) != nil {
			return nil
		}
	}
}

func (s *Subscriber) stream(ctx context.Context, deliver func([]byte), status func(error)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := s.conn.NewStream(ctx, &serviceDesc.Streams[0], subscribePath)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return fmt.Errorf("close send: %w", err)
	}
	if _, err := stream.Header(); err != nil {
		return fmt.Errorf("stream header: %w", err)
	}
	status(nil)

	for {
		msg := new(wrapperspb.BytesValue)
		if err := stream.RecvMsg(msg); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("recv: %w", err)
		}
		deliver(msg.GetValue())
	}
}

// #endregion run

// #region close
// Close shuts down the gRPC connection.
func (s *Subscriber) Close() error {
	return s.conn.Close()
}

// #endregion close

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
