package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/stimloop/internal/api"
	"github.com/danielpatrickdp/stimloop/internal/config"
	"github.com/danielpatrickdp/stimloop/internal/controller"
	"github.com/danielpatrickdp/stimloop/internal/render"
	"github.com/danielpatrickdp/stimloop/internal/scheduler"
	"github.com/danielpatrickdp/stimloop/internal/sessionlog"
	"github.com/danielpatrickdp/stimloop/internal/signal"
	"github.com/danielpatrickdp/stimloop/internal/store"
	"github.com/danielpatrickdp/stimloop/internal/transport/grpcsub"
	"github.com/danielpatrickdp/stimloop/internal/transport/redissub"
)

// #region main
func main() {
	cfgPath := flag.String("config", envOr("STIMLOOP_CONFIG", "session.yaml"), "session file (.yaml, .yml or .toml)")
	duration := flag.Duration("duration", 0, "stop after this long (0 runs until interrupted)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	catalog, err := cfg.BuildCatalog()
	if err != nil {
		log.Fatalf("invalid catalog: %v", err)
	}
	decider, err := cfg.BuildDecider()
	if err != nil {
		log.Fatalf("invalid decision policy: %v", err)
	}

	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	// Session record and log sinks
	cfgJSON, _ := json.Marshal(cfg)
	sessionID := uuid.NewString()
	var st *store.Store
	var sinks sessionlog.MultiSink
	if cfg.Log.DB != "" {
		st, err = store.NewStore(cfg.Log.DB)
		if err != nil {
			log.Fatalf("failed to open store: %v", err)
		}
		defer st.Close()
		sess, err := st.CreateSession(time.Now().UTC(), string(cfgJSON))
		if err != nil {
			log.Fatalf("failed to create session: %v", err)
		}
		sessionID = sess.ID
		sinks = append(sinks, sessionlog.NewStoreSink(st))
	}
	if cfg.Log.TSV != "" {
		f, err := os.OpenFile(cfg.Log.TSV, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("failed to open tsv log: %v", err)
		}
		sinks = append(sinks, sessionlog.NewTSVSink(f))
	}
	var hub *api.Hub
	if cfg.HTTP.Addr != "" {
		hub = api.NewHub()
		sinks = append(sinks, hub)
	}
	logger := sessionlog.NewLogger(sessionID, sinks,
		sessionlog.WithBufferSize(cfg.Log.Buffer),
		sessionlog.WithCatalog(catalog))

	// Signal path
	transport, err := newTransport(cfg)
	if err != nil {
		log.Fatalf("failed to create transport: %v", err)
	}
	rx := signal.NewReceiver(transport)
	if err := rx.Open(ctx); err != nil {
		log.Fatalf("failed to open receiver: %v", err)
	}

	// Frame loop
	var opts []scheduler.Option
	if cfg.Session.Profile {
		opts = append(opts, scheduler.WithStatsHook(newOverlay(os.Stderr, time.Second).Update))
	}
	machine := controller.New(cfg.ControllerConfig(), decider)
	sched := scheduler.New(catalog, machine, rx, render.NewHeadless(), logger, opts...)
	if err := sched.Start(time.Now()); err != nil {
		log.Fatalf("failed to start session: %v", err)
	}
	loop, err := render.NewLoop(cfg.Session.FPS)
	if err != nil {
		log.Fatalf("failed to create frame loop: %v", err)
	}
	loop.OnFrame(sched.Tick)

	var srv *http.Server
	if cfg.HTTP.Addr != "" {
		srv = &http.Server{
			Addr: cfg.HTTP.Addr,
			Handler: api.NewHandler(api.Deps{
				SessionID: sessionID,
				Catalog:   catalog,
				Scheduler: sched,
				Signals:   rx,
				Log:       logger,
				Hub:       hub,
			}).Routes(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("http server: %v", err)
			}
		}()
	}

	fmt.Printf("stimloop session %s ready.\n", sessionID)
	fmt.Printf("  Config: %s | Transport: %s | FPS: %d | Default: %s\n",
		*cfgPath, cfg.Transport.Kind, cfg.Session.FPS, cfg.Session.Default)
	if srv != nil {
		fmt.Printf("  API: http://%s\n", cfg.HTTP.Addr)
	}

	runErr := loop.Run(ctx)

	// Shutdown: stop ticking, stop intake, drain the log.
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("http shutdown: %v", err)
		}
		cancel()
	}
	if err := rx.Close(); err != nil {
		log.Printf("close receiver: %v", err)
	}
	if err := logger.Close(); err != nil {
		log.Printf("close session log: %v", err)
	}

	rxStats, logStats := rx.Stats(), logger.Stats()
	if st != nil {
		err := st.EndSession(sessionID, time.Now().UTC(), store.SessionStats{
			Received:     rxStats.Received,
			Dropped:      rxStats.Dropped,
			DecodeErrors: rxStats.DecodeErrors,
			Disconnects:  rxStats.Disconnects,
			LogDropped:   logStats.Dropped,
			Frames:       sched.Frames(),
		})
		if err != nil {
			log.Printf("end session: %v", err)
		}
	}

	fmt.Printf("session %s ended: frames=%d switches=%d received=%d dropped=%d decode_errors=%d logged=%d\n",
		sessionID, sched.Frames(), sched.Switches(), rxStats.Received, rxStats.Dropped,
		rxStats.DecodeErrors, logStats.Written)
	if runErr != nil {
		log.Fatalf("frame loop stopped: %v", runErr)
	}
}

// #endregion main

// #region helpers
func newTransport(cfg *config.File) (signal.Transport, error) {
	switch cfg.Transport.Kind {
	case config.TransportRedis:
		opts := redissub.DefaultOptions()
		opts.Addr = cfg.Transport.Redis.Addr
		opts.Password = cfg.Transport.Redis.Password
		opts.DB = cfg.Transport.Redis.DB
		opts.Channel = cfg.Transport.Redis.Channel
		return redissub.NewSubscriber(opts)
	case config.TransportGRPC:
		retry, err := cfg.RetryDelay()
		if err != nil {
			return nil, fmt.Errorf("transport.grpc.retry: %w", err)
		}
		return grpcsub.NewSubscriber(cfg.Transport.GRPC.Addr, retry)
	default:
		return nil, nil
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
