package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/danielpatrickdp/stimloop/internal/transport/grpcsub"
	"github.com/danielpatrickdp/stimloop/internal/transport/redissub"
)

// publisher sends one payload and reports how many subscribers got it.
type publisher interface {
	Publish(ctx context.Context, payload []byte) (int64, error)
}

// #region main
func main() {
	kind := flag.String("transport", envOr("STIMLOOP_TRANSPORT", "redis"), "redis or grpc")
	redisAddr := flag.String("redis", envOr("REDIS_ADDR", "localhost:6379"), "redis address")
	channel := flag.String("channel", envOr("REDIS_CHANNEL", "stimulus"), "redis channel")
	listen := flag.String("listen", envOr("SIGNAL_ADDR", "localhost:50061"), "grpc listen address")
	every := flag.Duration("every", 0, "pace lines at this interval instead of sending on read")
	flag.Parse()

	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pub publisher
	switch *kind {
	case "redis":
		opts := redissub.DefaultOptions()
		opts.Addr = *redisAddr
		opts.Channel = *channel
		p, err := redissub.NewPublisher(ctx, opts)
		if err != nil {
			log.Fatalf("failed to create publisher: %v", err)
		}
		defer p.Close()
		pub = p
		fmt.Printf("Publishing to redis %s channel %q.\n", *redisAddr, *channel)
	case "grpc":
		lis, err := net.Listen("tcp", *listen)
		if err != nil {
			log.Fatalf("failed to listen on %s: %v", *listen, err)
		}
		b := grpcsub.NewBroadcaster()
		srv := grpc.NewServer()
		grpcsub.RegisterSignalServer(srv, b)
		go func() {
			if err := srv.Serve(lis); err != nil {
				log.Printf("grpc server: %v", err)
			}
		}()
		defer func() {
			b.Close()
			srv.GracefulStop()
		}()
		pub = broadcastPublisher{b}
		fmt.Printf("Serving signals on %s.\n", lis.Addr())
	default:
		log.Fatalf("unknown transport %q", *kind)
	}

	fmt.Println("Type one payload per line (or 'quit' to exit):")
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	var tick <-chan time.Time
	if *every > 0 {
		t := time.NewTicker(*every)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if line == "quit" || line == "exit" {
				return
			}
			if tick != nil {
				select {
				case <-ctx.Done():
					return
				case <-tick:
				}
			}
			n, err := pub.Publish(ctx, []byte(line))
			if err != nil {
				log.Printf("publish error: %v", err)
				continue
			}
			fmt.Printf("[%s] %q -> %d subscriber(s)\n", time.Now().Format("15:04:05.000"), line, n)
		}
	}
}

// #endregion main

// #region helpers
type broadcastPublisher struct {
	b *grpcsub.Broadcaster
}

func (p broadcastPublisher) Publish(_ context.Context, payload []byte) (int64, error) {
	return int64(p.b.Publish(payload)), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
