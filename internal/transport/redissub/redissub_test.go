package redissub

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/danielpatrickdp/stimloop/internal/signal"
)

var _ signal.Transport = (*Subscriber)(nil)

func TestNewSubscriberRequiresChannel(t *testing.T) {
	opts := DefaultOptions()
	opts.Channel = ""
	if _, err := NewSubscriber(opts); err == nil {
		t.Fatal("expected error for empty channel")
	}
}

func TestRunStopsOnCancelWhenUnreachable(t *testing.T) {
	opts := DefaultOptions()
	opts.Addr = "127.0.0.1:1"
	opts.Retry = 10 * time.Millisecond
	sub, err := NewSubscriber(opts)
	if err != nil {
		t.Fatalf("NewSubscriber: %v", err)
	}
	defer sub.Close()

	var mu sync.Mutex
	var statuses []error
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err = sub.Run(ctx, func([]byte) { t.Error("unexpected delivery") }, func(err error) {
		mu.Lock()
		statuses = append(statuses, err)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Run returned %v, want nil on cancel", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(statuses) == 0 || statuses[0] == nil {
		t.Fatalf("expected a disconnected status, got %v", statuses)
	}
}

// Requires a live server: REDIS_ADDR=localhost:6379 go test ./internal/transport/redissub
func TestPublishSubscribe(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	opts := DefaultOptions()
	opts.Addr = addr
	opts.Channel = "stimloop-test-" + time.Now().Format("150405.000000")

	sub, err := NewSubscriber(opts)
	if err != nil {
		t.Fatalf("NewSubscriber: %v", err)
	}
	rx := signal.NewReceiver(sub)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rx.Open(ctx); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rx.Close()

	pub, err := NewPublisher(ctx, opts)
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}
	defer pub.Close()

	for ctx.Err() == nil {
		if _, err := pub.Publish(ctx, []byte("stim1")); err != nil {
			t.Fatalf("Publish: %v", err)
		}
		if sig, ok := rx.Poll(); ok {
			if sig.Label != "stim1" {
				t.Fatalf("label = %q, want stim1", sig.Label)
			}
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("no signal received before timeout")
}
