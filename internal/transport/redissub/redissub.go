// Package redissub carries signal payloads over Redis pub/sub.
package redissub

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// #region options
// Options configures the Redis connection and channel.
type Options struct {
	Addr     string
	Password string
	DB       int
	Channel  string
	Retry    time.Duration // wait after a receive error
}

// DefaultOptions returns options for a local Redis on the default port.
func DefaultOptions() Options {
	return Options{
		Addr:    "localhost:6379",
		Channel: "stimulus",
		Retry:   time.Second,
	}
}

func (o Options) client() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     o.Addr,
		Password: o.Password,
		DB:       o.DB,
	})
}

// #endregion options

// #region subscriber
// Subscriber implements signal.Transport on a Redis channel. Messages
// published while it is disconnected are lost, which matches the latest-wins
// semantics of the receiver.
type Subscriber struct {
	opts   Options
	client *redis.Client
}

// NewSubscriber creates a subscriber. No connection is made until Run.
func NewSubscriber(opts Options) (*Subscriber, error) {
	if opts.Channel == "" {
		return nil, fmt.Errorf("redis channel is required")
	}
	if opts.Retry <= 0 {
		opts.Retry = DefaultOptions().Retry
	}
	return &Subscriber{opts: opts, client: opts.client()}, nil
}

// Run subscribes and forwards every payload until ctx is cancelled.
// Receive errors are reported through status and retried.
func (s *Subscriber) Run(ctx context.Context, deliver func([]byte), status func(error)) error {
	ps := s.client.Subscribe(ctx, s.opts.Channel)
	defer ps.Close()

	connected := false
	for {
		if !connected {
			if _, err := ps.Receive(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				status(fmt.Errorf("subscribe %s: %w", s.opts.Channel, err))
				if !sleep(ctx, s.opts.Retry) {
					return nil
				}
				continue
			}
			connected = true
			status(nil)
		}

		msg, err := ps.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, redis.ErrClosed) {
				return nil
			}
			connected = false
			status(fmt.Errorf("receive %s: %w", s.opts.Channel, err))
			if !sleep(ctx, s.opts.Retry) {
				return nil
			}
			continue
		}
		deliver([]byte(msg.Payload))
	}
}

// Close releases the client.
func (s *Subscriber) Close() error {
	if err := s.client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}

// #endregion subscriber

// #region publisher
// Publisher sends payloads to the channel a Subscriber listens on.
type Publisher struct {
	opts   Options
	client *redis.Client
}

// NewPublisher connects and pings the server.
func NewPublisher(ctx context.Context, opts Options) (*Publisher, error) {
	if opts.Channel == "" {
		return nil, fmt.Errorf("redis channel is required")
	}
	client := opts.client()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Publisher{opts: opts, client: client}, nil
}

// Publish sends one payload and returns the number of receivers.
func (p *Publisher) Publish(ctx context.Context, payload []byte) (int64, error) {
	n, err := p.client.Publish(ctx, p.opts.Channel, payload).Result()
	if err != nil {
		return 0, fmt.Errorf("publish %s: %w", p.opts.Channel, err)
	}
	return n, nil
}

// Close releases the client.
func (p *Publisher) Close() error {
	return p.client.Close()
}

// #endregion publisher

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
